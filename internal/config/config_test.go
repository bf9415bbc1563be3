package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/wayfinder/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 30, cfg.Server.WriteTimeout)
		require.Equal(t, "backends.yaml", cfg.Catalog.File)
		require.False(t, cfg.Catalog.Watch)
		require.Equal(t, "echo/echo4", cfg.Routing.DefaultBackend)
		require.InDelta(t, 0.4, cfg.Scoring.WeightPerformance, 1e-9)
		require.InDelta(t, 0.3, cfg.Scoring.WeightCapability, 1e-9)
		require.InDelta(t, 0.2, cfg.Scoring.WeightCost, 1e-9)
		require.InDelta(t, 0.1, cfg.Scoring.WeightSpeed, 1e-9)
		require.Empty(t, cfg.Redis.Addr)
		require.Equal(t, "wayfinder:usage", cfg.Redis.UsageStream)
		require.Empty(t, cfg.OpenAI.APIKey)
		require.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("CATALOG_FILE", "/etc/wayfinder/backends.yaml")
		t.Setenv("CATALOG_WATCH", "true")
		t.Setenv("ROUTER_DEFAULT_BACKEND", "openai/gpt-5.2-instant")
		t.Setenv("SCORING_WEIGHT_PERFORMANCE", "0.5")
		t.Setenv("SCORING_WEIGHT_CAPABILITY", "0.3")
		t.Setenv("SCORING_WEIGHT_COST", "0.1")
		t.Setenv("SCORING_WEIGHT_SPEED", "0.1")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("OPENAI_API_KEY", "sk-test-key")
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, "/etc/wayfinder/backends.yaml", cfg.Catalog.File)
		require.True(t, cfg.Catalog.Watch)
		require.Equal(t, "openai/gpt-5.2-instant", cfg.Routing.DefaultBackend)
		require.InDelta(t, 0.5, cfg.Scoring.WeightPerformance, 1e-9)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, "sk-test-key", cfg.OpenAI.APIKey)
		require.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)
	})
}
