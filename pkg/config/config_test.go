package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.API.Timeout())
	assert.Equal(t, 256, cfg.Analysis.SummaryMaxTokens)
	assert.Equal(t, 128, cfg.Analysis.GenerativeMaxTokens)
	assert.Equal(t, 256, cfg.Analysis.CombinedMaxTokens)
	assert.Equal(t, 3, cfg.Analysis.RagTopK)
	assert.False(t, cfg.Analysis.DiscardStale)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, "api", cfg.Generative.Provider)
	assert.Equal(t, 30, cfg.Server.SubmitsPerMinute)
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL())
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.SQLite.Enabled)

	require.NoError(t, Validate(cfg))
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  baseURL: http://inference:9000
analysis:
  ragTopK: 5
  discardStale: true
generative:
  provider: groq
  apiKey: test-key
server:
  port: 9999
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("DOCCLIENT_SERVER_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://inference:9000", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Analysis.RagTopK)
	assert.True(t, cfg.Analysis.DiscardStale)
	assert.Equal(t, "groq", cfg.Generative.Provider)
	assert.Equal(t, "test-key", cfg.Generative.APIKey)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 256, cfg.Analysis.SummaryMaxTokens)
}

func TestLoadWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("DOCCLIENT_API_BASEURL", "http://backend:8000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", cfg.API.BaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown provider", func(c *Config) { c.Generative.Provider = "openai" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero top k", func(c *Config) { c.Analysis.RagTopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
