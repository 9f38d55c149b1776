package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blushapp/ranking-engine/internal/config"
	"github.com/blushapp/ranking-engine/internal/metrics"
)

// NewEngine builds the gin engine with the shared endpoints and all
// provided service registrars attached.
func NewEngine(m *metrics.Metrics, registrars ...Registrar) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
	))

	for _, r := range registrars {
		r.Register(engine)
	}
	return engine
}

// StartHTTPServer boots the HTTP server and blocks until it exits.
func StartHTTPServer(cfg *config.Config, m *metrics.Metrics, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	engine := NewEngine(m, registrars...)
	return engine.Run(addr)
}
