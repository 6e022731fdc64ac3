package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, 600*time.Second, cfg.Optimizer.CacheTTL)
	assert.Equal(t, 1, cfg.Optimizer.DefaultMaxStores)
	assert.Equal(t, 10, cfg.Optimizer.MaxStoresLimit)
	assert.Equal(t, 100, cfg.Optimizer.MaxCartItems)
	assert.Equal(t, []string{"organic", "produce"}, cfg.Optimizer.QualityCategories)

	require.Len(t, cfg.Catalog.Stores, 4)
	assert.Equal(t, "kroger", cfg.Catalog.Stores[0].ID)
	assert.Equal(t, int64(399), cfg.Catalog.Stores[0].DeliveryFee)
	assert.True(t, cfg.Catalog.Stores[3].Quality)
	assert.Equal(t, int64(499), cfg.Catalog.DefaultDeliveryFee)

	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
}
