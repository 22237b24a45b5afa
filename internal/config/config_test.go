package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "simfleet", cfg.Name)
	assert.Equal(t, 30*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 300*time.Millisecond, cfg.GetFilterDebounce())
	assert.Equal(t, 0, cfg.Enrichment.MaxConcurrent)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://fleet.internal/api/v2
  token: secret
  timeout: 5s
enrichment:
  max_concurrent: 8
ui:
  filter_debounce: 150ms
  dark_mode: true
logging:
  debug_mode: true
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://fleet.internal/api/v2", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, 5*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 8, cfg.Enrichment.MaxConcurrent)
	assert.Equal(t, 150*time.Millisecond, cfg.GetFilterDebounce())
	assert.True(t, cfg.UI.DarkMode)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIMFLEET_API_URL", "https://override.example.com")
	t.Setenv("SIMFLEET_API_TOKEN", "env-token")
	t.Setenv("SIMFLEET_DEBUG", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.API.BaseURL)
	assert.Equal(t, "env-token", cfg.API.Token)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.API.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Enrichment.MaxConcurrent = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.API.Timeout = "not-a-duration"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://roundtrip.example.com"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://roundtrip.example.com", loaded.API.BaseURL)
}
