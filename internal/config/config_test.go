package config

import (
	"os"
	"path/filepath"
	"testing"

	"apod/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.nasa.gov/planetary/apod", cfg.API.URL)
	assert.Equal(t, "api_key.txt", cfg.API.KeyFile)
	assert.Equal(t, "~/APOD", cfg.Paths.ImagesDir)
	assert.Equal(t, "~/Pictures/APOD", cfg.Paths.LinksDir)
	assert.Equal(t, "./setWallpaper.sh", cfg.Paths.Script)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "6h", cfg.Watch.Interval)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.False(t, cfg.Database.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"api": {"key_file": "/etc/apod/key"},
		"paths": {"images_dir": "/srv/apod", "script": "/usr/local/bin/wall"},
		"watch": {"interval": "1h"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("APOD_LINKS_DIR", "/srv/links")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/apod/key", cfg.API.KeyFile)
	assert.Equal(t, "/srv/apod", cfg.Paths.ImagesDir)
	assert.Equal(t, "/srv/links", cfg.Paths.LinksDir)
	assert.Equal(t, "/usr/local/bin/wall", cfg.Paths.Script)
	assert.Equal(t, "1h", cfg.Watch.Interval)
	assert.Equal(t, "https://api.nasa.gov/planetary/apod", cfg.API.URL)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func validConfig() *Config {
	return &Config{
		API:     APIConfig{URL: "https://api.nasa.gov/planetary/apod"},
		Paths:   PathsConfig{ImagesDir: "/a", LinksDir: "/b", Script: "./s.sh"},
		Watch:   WatchConfig{Interval: "6h"},
		History: HistoryConfig{Limit: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad url", mutate: func(c *Config) { c.API.URL = "not a url" }, wantErr: "invalid api.url"},
		{name: "bad date", mutate: func(c *Config) { c.API.Date = "01/02/2024" }, wantErr: "invalid api.date"},
		{name: "good date", mutate: func(c *Config) { c.API.Date = "2024-01-02" }},
		{name: "bad timeout", mutate: func(c *Config) { c.API.Timeout = "soon" }, wantErr: "invalid api.timeout"},
		{name: "no images dir", mutate: func(c *Config) { c.Paths.ImagesDir = "" }, wantErr: "paths.images_dir"},
		{name: "no links dir", mutate: func(c *Config) { c.Paths.LinksDir = "" }, wantErr: "paths.links_dir"},
		{name: "no script", mutate: func(c *Config) { c.Paths.Script = "" }, wantErr: "paths.script"},
		{name: "bad interval", mutate: func(c *Config) { c.Watch.Interval = "daily" }, wantErr: "invalid watch.interval"},
		{name: "negative interval", mutate: func(c *Config) { c.Watch.Interval = "-1h" }, wantErr: "must be positive"},
		{name: "zero history limit", mutate: func(c *Config) { c.History.Limit = 0 }, wantErr: "history.limit"},
		{name: "database without user", mutate: func(c *Config) {
			c.Database.Enabled = true
			c.Database.Host = "localhost"
		}, wantErr: "database username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "api_key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("DEMO_KEY\n"), 0o600))

	cfg := validConfig()
	cfg.API.KeyFile = keyFile
	key, err := cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "DEMO_KEY", key)

	cfg.API.Key = "FLAG_KEY"
	key, err = cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "FLAG_KEY", key)
}

func TestResolveAPIKey_Missing(t *testing.T) {
	cfg := validConfig()
	cfg.API.KeyFile = filepath.Join(t.TempDir(), "nope.txt")
	_, err := cfg.ResolveAPIKey()
	assert.ErrorIs(t, err, domain.ErrNoAPIKey)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	cfg.API.KeyFile = empty
	_, err = cfg.ResolveAPIKey()
	assert.ErrorIs(t, err, domain.ErrNoAPIKey)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "APOD"), ExpandHome("~/APOD"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/tmp/x", ExpandHome("/tmp/x"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
