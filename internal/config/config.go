package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Engine struct {
		// QueryTimeout bounds data-store work inside a single
		// recommendation request.
		QueryTimeout time.Duration

		DecayInterval time.Duration

		RecommendationTTL time.Duration
		StaleTTL          time.Duration
		PatternTTL        time.Duration
		BonusMarkerTTL    time.Duration

		DefaultLimit int
		MaxLimit     int
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "ranking_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "blush")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Engine
	cfg.Engine.QueryTimeout = getEnvDuration("ENGINE_QUERY_TIMEOUT", 3*time.Second)
	cfg.Engine.DecayInterval = getEnvDuration("ENGINE_DECAY_INTERVAL", 24*time.Hour)
	cfg.Engine.RecommendationTTL = getEnvDuration("ENGINE_RECOMMENDATION_TTL", 30*time.Minute)
	cfg.Engine.StaleTTL = getEnvDuration("ENGINE_STALE_TTL", 2*time.Hour)
	cfg.Engine.PatternTTL = getEnvDuration("ENGINE_PATTERN_TTL", time.Hour)
	cfg.Engine.BonusMarkerTTL = getEnvDuration("ENGINE_BONUS_MARKER_TTL", 365*24*time.Hour)
	cfg.Engine.DefaultLimit = getEnvInt("ENGINE_DEFAULT_LIMIT", 20)
	cfg.Engine.MaxLimit = getEnvInt("ENGINE_MAX_LIMIT", 100)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
