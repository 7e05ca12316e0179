package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory and home so no stray config is picked up.
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "xdg"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8547", cfg.ServerURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "auto", cfg.Theme)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server_url: https://qms.ambac.internal\npage_size: 50\ntheme: dark\ntoken: t0ken\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://qms.ambac.internal", cfg.ServerURL)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, "t0ken", cfg.Token)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://from-file:1\n"), 0o644))

	t.Setenv("TRACKER_SERVER_URL", "http://from-env:2")
	t.Setenv("TRACKER_PAGE_SIZE", "10")
	t.Setenv("TRACKER_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:2", cfg.ServerURL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero page size", "page_size: 0\n"},
		{"negative retries", "max_retries: -1\n"},
		{"unknown theme", "theme: solarized\n"},
		{"blank server", "server_url: \" \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
