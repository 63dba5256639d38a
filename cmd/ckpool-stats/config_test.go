package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerhive/ckpool-stats/pkg/ckpool"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, "https://solo.ckpool.org", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.False(t, cfg.StrictAddress)
	assert.Empty(t, cfg.Users)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CKPOOL_URL", "http://127.0.0.1:8080")
	t.Setenv("CKPOOL_TIMEOUT", "5s")
	t.Setenv("CKPOOL_STRICT_ADDRESS", "true")
	t.Setenv("CKPOOL_DB", "/tmp/stats.db")
	t.Setenv("CKPOOL_USERS", " a, b ,,c ")
	t.Setenv("HARVEST_INTERVAL", "2m")
	t.Setenv("HARVEST_CONCURRENCY", "8")
	t.Setenv("SNAPSHOT_RETENTION", "0")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg := LoadConfig()
	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.StrictAddress)
	assert.Equal(t, "/tmp/stats.db", cfg.DBPath)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Users)
	assert.Equal(t, 2*time.Minute, cfg.HarvestInterval)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Zero(t, cfg.Retention)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadConfigIgnoresInvalid(t *testing.T) {
	t.Setenv("CKPOOL_TIMEOUT", "soon")
	t.Setenv("HARVEST_CONCURRENCY", "-1")

	cfg := LoadConfig()
	assert.Equal(t, ckpool.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestConfigNewClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictAddress = true

	client, err := cfg.NewClient()
	require.NoError(t, err)

	_, err = client.UserURL("satoshi")
	assert.ErrorIs(t, err, ckpool.ErrInvalidEndpoint)

	u, err := client.UserURL("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.NoError(t, err)
	assert.Equal(t, "https://solo.ckpool.org/users/1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", u.String())

	cfg.BaseURL = "solo.ckpool.org"
	_, err = cfg.NewClient()
	assert.ErrorIs(t, err, ckpool.ErrInvalidEndpoint)
}
