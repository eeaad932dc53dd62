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
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Hub.HistorySize)
	assert.Equal(t, 20, cfg.Hub.HistoryReplay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "negative read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = -time.Second }},
		{name: "zero max message size", mutate: func(c *Config) { c.Websocket.MaxMessageSize = 0 }},
		{name: "zero history size", mutate: func(c *Config) { c.Hub.HistorySize = 0 }},
		{name: "replay exceeds history", mutate: func(c *Config) { c.Hub.HistoryReplay = 200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RELAY_SERVER_PORT", "8080")
	t.Setenv("RELAY_LOG_LEVEL", "debug")
	t.Setenv("RELAY_HUB_HISTORY_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Hub.HistorySize)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: 9000\nlogging:\n  level: warn\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// untouched fields keep their defaults
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := []byte(`{"server":{"port":9100}}`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_BadFile(t *testing.T) {
	_, err := Load(LoadOptions{Path: "does-not-exist.yaml"})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))
	_, err = Load(LoadOptions{Path: path})
	require.Error(t, err)
}

func TestLoad_InvalidAfterOverride(t *testing.T) {
	t.Setenv("RELAY_SERVER_PORT", "-1")

	_, err := Load()
	require.Error(t, err)
}
