package main

import (
	"context"

	"github.com/blushapp/ranking-engine/internal/app"
	"github.com/blushapp/ranking-engine/internal/cache"
	"github.com/blushapp/ranking-engine/internal/config"
	"github.com/blushapp/ranking-engine/internal/db"
	"github.com/blushapp/ranking-engine/internal/elo"
	"github.com/blushapp/ranking-engine/internal/logger"
	"github.com/blushapp/ranking-engine/internal/metrics"
	"github.com/blushapp/ranking-engine/internal/ranker"
	"github.com/blushapp/ranking-engine/internal/server"
	"github.com/blushapp/ranking-engine/internal/service/discover"
	"github.com/blushapp/ranking-engine/internal/service/ratings"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	m := metrics.New()
	appCtx := app.New(database, redisCache, log, m, cfg)

	eloTuning := elo.DefaultTuning()
	rankTuning := ranker.DefaultTuning()

	registrars := []server.Registrar{
		discover.NewRegistrar(appCtx, eloTuning, rankTuning),
		ratings.NewRegistrar(appCtx, eloTuning),
	}

	// Periodic inactivity decay
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ratings.NewService(appCtx, eloTuning).StartDecayLoop(ctx)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, m, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
