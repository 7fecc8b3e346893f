package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORYFLOW_ADDR", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr())
	delay, err := cfg.AssetDelay()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, delay)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8080"
database_url: postgres://localhost/storyflow
assets:
  base_url: https://cdn.example.com
  delay: 500ms
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, "postgres://localhost/storyflow", cfg.DatabaseURL)
	assert.Equal(t, "https://cdn.example.com", cfg.Assets.BaseURL)
	delay, err := cfg.AssetDelay()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, delay)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":8080\"\n"), 0o644))

	t.Setenv("STORYFLOW_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://db/override")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr())
	assert.Equal(t, "postgres://db/override", cfg.DatabaseURL)
}

func TestLoadConfigInvalidDelay(t *testing.T) {
	cfg := &Config{}
	cfg.Assets.Delay = "soon"

	_, err := cfg.AssetDelay()
	assert.Error(t, err)
}
