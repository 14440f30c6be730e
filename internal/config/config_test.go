package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/wishlist/internal/config"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad(t *testing.T) {
	t.Run("defaults when no file", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.API.URL)
		assert.Equal(t, 10*time.Second, cfg.Timeout())
		assert.Equal(t, 100*time.Millisecond, cfg.SettleDelay())
		assert.Equal(t, 30*time.Second, cfg.CacheTTL())
		assert.Equal(t, "file", cfg.Auth.Backend)
		assert.Equal(t, "memory", cfg.Cache.Driver)
	})

	t.Run("file then local then env", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yml")
		writeFile(t, path, "api:\n  url: https://wishes.example.com/\n  timeout: 3s\nlog:\n  level: debug\n")
		writeFile(t, filepath.Join(dir, "config.local.yml"), "log:\n  level: warn\n")
		t.Setenv("WISHLIST_CACHE_DRIVER", "none")

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://wishes.example.com", cfg.API.URL)
		assert.Equal(t, 3*time.Second, cfg.Timeout())
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "none", cfg.Cache.Driver)
		assert.Equal(t, "wishlist-cli", cfg.API.UserAgent)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("WISHLIST_TOKEN_BACKEND", "vault")
		_, err := config.Load(filepath.Join(t.TempDir(), "config.yml"))
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("WISHLIST_TIMEOUT", "soon")
		_, err := config.Load(filepath.Join(t.TempDir(), "config.yml"))
		require.Error(t, err)
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := config.ExpandHome("~/.wishlist/x.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".wishlist", "x.json"), p)

	p, err = config.ExpandHome("/tmp/x.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.json", p)
}
