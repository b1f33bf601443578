package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "data/scorecard.csv", cfg.ScorecardPath)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Scrape)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.UseFixtureScraper())
	assert.True(t, cfg.UseFixtureDirectory())
	assert.True(t, cfg.UseLexiconScorer())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
  shutdown_timeout: 10s
scorecard_path: /srv/scorecard.csv
log_level: debug
scraper:
  endpoint: https://scraper.example.com
  api_key: secret
timeouts:
  scrape: 30s
  source: 25s
rate_limit:
  per_minute: 120
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("THREADSCORE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/scorecard.csv", cfg.ScorecardPath)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "https://scraper.example.com", cfg.Scraper.Endpoint)
	assert.False(t, cfg.UseFixtureScraper())
	assert.True(t, cfg.UseFixtureDirectory())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Scrape)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))
	t.Setenv("THREADSCORE_CONFIG", path)
	t.Setenv("PORT", "7070")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("ESG_DIRECTORY_ENDPOINT", "https://esg.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.UseFixtureDirectory())
}

func TestLoadRejectsBadFile(t *testing.T) {
	t.Setenv("THREADSCORE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty scorecard path", func(c *Config) { c.ScorecardPath = "" }},
		{"zero scrape timeout", func(c *Config) { c.Timeouts.Scrape = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimit.PerMinute = 0 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
