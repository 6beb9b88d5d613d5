package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"apod/internal/domain"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

// Config is the top-level configuration of the APOD wallpaper tool.
type Config struct {
	API      APIConfig      `json:"api"`
	Paths    PathsConfig    `json:"paths"`
	Logger   LoggerConfig   `json:"logger"`
	Watch    WatchConfig    `json:"watch"`
	History  HistoryConfig  `json:"history"`
	Database DatabaseConfig `json:"database"`
}

// APIConfig holds the metadata endpoint settings.
// Key takes precedence over KeyFile.
type APIConfig struct {
	URL     string `json:"url" env:"APOD_API_URL" env-default:"https://api.nasa.gov/planetary/apod"`
	Key     string `json:"key" env:"APOD_API_KEY"`
	KeyFile string `json:"key_file" env:"APOD_API_KEY_FILE" env-default:"api_key.txt"`
	Date    string `json:"date" env:"APOD_DATE"`
	Timeout string `json:"timeout" env:"APOD_API_TIMEOUT"`
}

// PathsConfig holds the local directories and the wallpaper script.
// A leading "~" is expanded to the user's home directory.
type PathsConfig struct {
	ImagesDir string `json:"images_dir" env:"APOD_IMAGES_DIR" env-default:"~/APOD"`
	LinksDir  string `json:"links_dir" env:"APOD_LINKS_DIR" env-default:"~/Pictures/APOD"`
	Script    string `json:"script" env:"APOD_SCRIPT" env-default:"./setWallpaper.sh"`
}

// LoggerConfig configures logging. File logging is off while File is empty.
type LoggerConfig struct {
	Level     string `json:"level" env:"APOD_LOG_LEVEL" env-default:"info"`
	File      string `json:"file" env:"APOD_LOG_FILE"`
	ErrorFile string `json:"error_file" env:"APOD_LOG_ERROR_FILE"`
}

// WatchConfig configures the interval used by the watch command.
type WatchConfig struct {
	Interval string `json:"interval" env:"APOD_WATCH_INTERVAL" env-default:"6h"`
}

// HistoryConfig configures the history command.
type HistoryConfig struct {
	Limit int `json:"limit" env:"APOD_HISTORY_LIMIT" env-default:"10"`
}

// DatabaseConfig holds the PostgreSQL connection used for the listing archive.
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled" env:"APOD_DB_ENABLED"`
	Host     string `json:"host" env:"APOD_DB_HOST" env-default:"localhost"`
	Port     int    `json:"port" env:"APOD_DB_PORT" env-default:"5432"`
	Username string `json:"username" env:"APOD_DB_USER"`
	Password string `json:"password" env:"APOD_DB_PASSWORD"`
	DBName   string `json:"dbname" env:"APOD_DB_NAME" env-default:"apod"`
	SSLMode  string `json:"sslmode" env:"APOD_DB_SSLMODE" env-default:"disable"`
}

// DSN returns the PostgreSQL connection string in URI form.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode)
}

// Load reads the configuration. Variables from a .env file in the working
// directory are loaded first, then the JSON file at configPath (skipped if
// it does not exist), then APOD_* environment variables and defaults.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg := &Config{}
	_, err := os.Stat(configPath)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate checks the configuration and returns the first problem found.
// It does not look at the API key, see ResolveAPIKey.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.API.URL); err != nil {
		return fmt.Errorf("invalid api.url: %s", c.API.URL)
	}
	if c.API.Date != "" {
		if _, err := time.Parse(dateLayout, c.API.Date); err != nil {
			return fmt.Errorf("invalid api.date %q, expected YYYY-MM-DD", c.API.Date)
		}
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("invalid api.timeout: %w", err)
		}
	}
	if c.Paths.ImagesDir == "" {
		return fmt.Errorf("paths.images_dir is not set")
	}
	if c.Paths.LinksDir == "" {
		return fmt.Errorf("paths.links_dir is not set")
	}
	if c.Paths.Script == "" {
		return fmt.Errorf("paths.script is not set")
	}
	interval, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return fmt.Errorf("invalid watch.interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("watch.interval must be positive")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be a positive number")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is not set")
		}
		if c.Database.Username == "" {
			return fmt.Errorf("database username is not set")
		}
	}
	return nil
}

// ResolveAPIKey returns the configured key, or the content of the key file
// with surrounding newlines stripped. A missing or empty key is domain.ErrNoAPIKey.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.API.Key != "" {
		return c.API.Key, nil
	}
	if c.API.KeyFile == "" {
		return "", domain.ErrNoAPIKey
	}
	data, err := os.ReadFile(ExpandHome(c.API.KeyFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", domain.ErrNoAPIKey, c.API.KeyFile)
		}
		return "", fmt.Errorf("failed to read api key file %s: %w", c.API.KeyFile, err)
	}
	key := strings.Trim(string(data), "\n")
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrNoAPIKey, c.API.KeyFile)
	}
	return key, nil
}

// TimeoutDuration returns the HTTP client timeout; zero means none.
func (c *APIConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// IntervalDuration returns the parsed watch interval.
func (c *WatchConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
