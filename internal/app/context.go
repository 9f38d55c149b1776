package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/blushapp/ranking-engine/internal/cache"
	"github.com/blushapp/ranking-engine/internal/config"
	"github.com/blushapp/ranking-engine/internal/metrics"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Config     *config.Config
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, m *metrics.Metrics, cfg *config.Config) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Metrics:    m,
		Config:     cfg,
	}
}
