package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration. App settings are read
// unprefixed (DATABASE_URL, USE_GRAPH_LINKS, ...), matching what
// deployments already export.
type Config struct {
	Server ServerConfig `env:",prefix=SERVER_"`
	App    AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	// DatabaseURL selects the Postgres store; empty runs the in-memory
	// store with seed data (dev mode).
	DatabaseURL string `env:"DATABASE_URL"`
	SiteOrigin  string `env:"SITE_ORIGIN,default=https://whpcodes.com"`
	// UseGraphLinks gates the neighbor-graph widgets; when off, the
	// widget endpoints go straight to the category fallback.
	UseGraphLinks bool   `env:"USE_GRAPH_LINKS,default=true"`
	GraphPath     string `env:"GRAPH_PATH,default=data/graph/neighbors.json"`
	PagesDir      string `env:"PAGES_DIR,default=data/pages"`
	// RedisAddr enables the promo-stats counter cache when set.
	RedisAddr string `env:"REDIS_ADDR"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	Debug     bool   `env:"DEBUG,default=false"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
