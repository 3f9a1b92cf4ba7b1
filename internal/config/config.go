package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string        `env:"APP_ENV" envDefault:"development"`
	ListenAddr    string        `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	AlertWorkers  int           `env:"ALERT_WORKERS" envDefault:"0"`
	EvaluationTTL time.Duration `env:"EVALUATION_TTL" envDefault:"2160h"` // 90 days
	// Deadline applied to every request so storage lookups can never hang a
	// handler; an expired deadline reads as a storage failure downstream.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

// Load reads .env (when present) and the process environment. A missing
// DATABASE_URL is reported as an error value so callers can decide whether
// it is fatal.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}
