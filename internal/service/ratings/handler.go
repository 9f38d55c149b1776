package ratings

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blushapp/ranking-engine/internal/elo"
	svcErr "github.com/blushapp/ranking-engine/internal/errors"
)

type putSwipeRequest struct {
	ActorUserID     uint64 `json:"actor_user_id" binding:"required"`
	RecipientUserID uint64 `json:"recipient_user_id" binding:"required"`
	Action          string `json:"action" binding:"required"`
}

// PutSwipe handles POST /v1/swipes.
func (s *Service) PutSwipe(c *gin.Context) {
	var req putSwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("actor_user_id, recipient_user_id and action are required"))
		return
	}

	action, ok := elo.ParseAction(req.Action)
	if !ok {
		svcErr.JSON(c, svcErr.InvalidArgument("action must be one of like, super_like, nope"))
		return
	}

	result, err := s.PutSwipeEvent(c.Request.Context(), req.ActorUserID, req.RecipientUserID, action)
	if err != nil {
		s.appCtx.Logger.Error("swipe processing failed",
			"actor", req.ActorUserID, "recipient", req.RecipientUserID, "err", err)
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type bonusRequest struct {
	Type string `json:"type" binding:"required"`
}

// PostBonus handles POST /v1/users/:id/bonuses.
func (s *Service) PostBonus(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("id must be a valid uint64"))
		return
	}
	var req bonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("type is required"))
		return
	}

	result, err := s.ApplyBonus(c.Request.Context(), userID, req.Type)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRatingHandler handles GET /v1/users/:id/rating.
func (s *Service) GetRatingHandler(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("id must be a valid uint64"))
		return
	}

	view, err := s.GetRating(c.Request.Context(), userID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type blockRequest struct {
	BlockedUserID uint64 `json:"blocked_user_id" binding:"required"`
}

// PostBlock handles POST /v1/users/:id/blocks.
func (s *Service) PostBlock(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("id must be a valid uint64"))
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.JSON(c, svcErr.InvalidArgument("blocked_user_id is required"))
		return
	}

	if err := s.Block(c.Request.Context(), userID, req.BlockedUserID); err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": req.BlockedUserID})
}

// GetLeaderboard handles GET /v1/leaderboard.
func (s *Service) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := s.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
