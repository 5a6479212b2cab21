package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/cityhunt.db"`
	RedisURL      string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RenderURL     string        `env:"RENDER_URL"`
	RenderTimeout time.Duration `env:"RENDER_TIMEOUT" envDefault:"10s"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SeedDemo      bool          `env:"SEED_DEMO" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
