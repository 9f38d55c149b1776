package ratings

import (
	"github.com/gin-gonic/gin"

	"github.com/blushapp/ranking-engine/internal/app"
	"github.com/blushapp/ranking-engine/internal/elo"
)

// Registrar ties the ratings service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
	tuning elo.Tuning
}

// NewRegistrar creates a new Registrar for the ratings service
func NewRegistrar(appCtx *app.AppContext, tuning elo.Tuning) *Registrar {
	return &Registrar{appCtx: appCtx, tuning: tuning}
}

// Register attaches the ratings routes to the gin engine
func (r *Registrar) Register(engine *gin.Engine) {
	service := NewService(r.appCtx, r.tuning)
	engine.POST("/v1/swipes", service.PutSwipe)
	engine.GET("/v1/users/:id/rating", service.GetRatingHandler)
	engine.POST("/v1/users/:id/bonuses", service.PostBonus)
	engine.POST("/v1/users/:id/blocks", service.PostBlock)
	engine.GET("/v1/leaderboard", service.GetLeaderboard)
}
