package discover

import (
	"github.com/gin-gonic/gin"

	"github.com/blushapp/ranking-engine/internal/app"
	"github.com/blushapp/ranking-engine/internal/elo"
	"github.com/blushapp/ranking-engine/internal/ranker"
)

// Registrar ties the discover service into the HTTP server
type Registrar struct {
	appCtx     *app.AppContext
	eloTuning  elo.Tuning
	rankTuning ranker.Tuning
}

// NewRegistrar creates a new Registrar for the discover service
func NewRegistrar(appCtx *app.AppContext, eloTuning elo.Tuning, rankTuning ranker.Tuning) *Registrar {
	return &Registrar{appCtx: appCtx, eloTuning: eloTuning, rankTuning: rankTuning}
}

// Register attaches the discover routes to the gin engine
func (r *Registrar) Register(engine *gin.Engine) {
	service := NewService(r.appCtx, r.eloTuning, r.rankTuning)
	engine.GET("/v1/users/:id/recommendations", service.GetRecommendations)
}
