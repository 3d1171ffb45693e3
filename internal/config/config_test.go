package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "https://whpcodes.com", cfg.App.SiteOrigin)
	assert.True(t, cfg.App.UseGraphLinks)
	assert.Equal(t, "info", cfg.App.LogLevel)
}

func TestLoad_ReadsUnprefixedAppVars(t *testing.T) {
	// app settings use the bare names deployments export, not APP_*
	t.Setenv("DATABASE_URL", "postgres://localhost/promos")
	t.Setenv("USE_GRAPH_LINKS", "false")
	t.Setenv("DEBUG", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/promos", cfg.App.DatabaseURL)
	assert.False(t, cfg.App.UseGraphLinks)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "localhost:6379", cfg.App.RedisAddr)
	assert.Equal(t, "9090", cfg.Server.Port)
}
