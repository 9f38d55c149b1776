package discover

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	svcErr "github.com/blushapp/ranking-engine/internal/errors"
)

type recommendationView struct {
	UserID     uint64  `json:"user_id"`
	FinalScore float64 `json:"final_score"`
	Rank       int     `json:"rank"`
	IsBoosted  bool    `json:"is_boosted"`
	MLAdjusted bool    `json:"ml_adjusted"`
}

// GetRecommendations handles GET /v1/users/:id/recommendations.
func (s *Service) GetRecommendations(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("id must be a valid uint64"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := s.Recommendations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		s.appCtx.Logger.Error("recommendations failed", "user", userID, "err", err)
		svcErr.JSON(c, err)
		return
	}

	views := make([]recommendationView, 0, len(entries))
	for i, e := range entries {
		views = append(views, recommendationView{
			UserID:     e.UserID,
			FinalScore: e.FinalScore,
			Rank:       offset + i + 1,
			IsBoosted:  e.IsBoosted,
			MLAdjusted: e.MLAdjusted,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":         userID,
		"count":           len(views),
		"recommendations": views,
	})
}
