package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables overriding the service settings. They may also be set
// in a .env file in the working directory.
const (
	EnvAPIKey = "CRATE_API_KEY"
	EnvURL    = "CRATE_URL"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 3
	defaultSelectionTTL = 30 * time.Minute
	defaultHistoryMax   = 10
)

type Config struct {
	LogLevel string `koanf:"log_level"` // "trace", "debug", "info", "warn", "error" (default: "info")

	// Download service connection
	Service ServiceConfig `koanf:"service"`

	// Download status polling
	Poll PollConfig `koanf:"poll"`

	Selection SelectionConfig `koanf:"selection"`
	History   HistoryConfig   `koanf:"history"`

	// Options sent with every download request
	Download DownloadConfig `koanf:"download"`
}

// ServiceConfig holds the download service connection settings.
type ServiceConfig struct {
	URL             string `koanf:"url"`               // e.g., "http://localhost:8080"
	APIKey          string `koanf:"apikey"`            // sent as X-API-Key
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"` // search/album cache lifetime (default: 300)
}

// PollConfig holds download status polling settings.
type PollConfig struct {
	IntervalMS     int   `koanf:"interval_ms"`      // delay between polls (default: 2000)
	MaxAttempts    int   `koanf:"max_attempts"`     // fetch attempts per poll (default: 3)
	StopOnTerminal *bool `koanf:"stop_on_terminal"` // stop once a download finished (default: true)
}

// SelectionConfig holds album selection persistence settings.
type SelectionConfig struct {
	TTLMinutes int `koanf:"ttl_minutes"` // saved selection lifetime (default: 30)
}

// HistoryConfig holds search history settings.
type HistoryConfig struct {
	Max int `koanf:"max"` // entries kept (default: 10)
}

// DownloadConfig holds the options sent with download requests.
type DownloadConfig struct {
	Quality   string `koanf:"quality"`    // e.g., "lossless"
	Format    string `koanf:"format"`     // e.g., "flac"
	OutputDir string `koanf:"output_dir"` // server-side destination
}

// Load reads the configuration. When path is set only that file is read and
// it must exist; otherwise the default locations are tried in order.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	configPaths := getConfigPaths()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		configPaths = []string{expandPath(path)}
	}

	for _, p := range configPaths {
		if _, err := os.Stat(p); err == nil {
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	// Normalize service URL (remove trailing slash)
	cfg.Service.URL = strings.TrimSuffix(cfg.Service.URL, "/")

	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvURL); v != "" {
		c.Service.URL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Service.APIKey = v
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/crate/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "crate", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasServiceConfig returns true if the download service URL is configured.
func (c *Config) HasServiceConfig() bool {
	return c.Service.URL != ""
}

// CacheTTL returns how long search and album lookups are cached.
func (c *Config) CacheTTL() time.Duration {
	if c.Service.CacheTTLSeconds <= 0 {
		return defaultCacheTTL
	}
	return time.Duration(c.Service.CacheTTLSeconds) * time.Second
}

// PollInterval returns the delay between status polls.
func (c *Config) PollInterval() time.Duration {
	if c.Poll.IntervalMS <= 0 {
		return defaultPollInterval
	}
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// PollMaxAttempts returns the fetch attempts per poll.
func (c *Config) PollMaxAttempts() int {
	if c.Poll.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return c.Poll.MaxAttempts
}

// StopOnTerminal reports whether polling stops once a download finished.
func (c *Config) StopOnTerminal() bool {
	if c.Poll.StopOnTerminal == nil {
		return true
	}
	return *c.Poll.StopOnTerminal
}

// SelectionTTL returns how long a saved selection stays valid.
func (c *Config) SelectionTTL() time.Duration {
	if c.Selection.TTLMinutes <= 0 {
		return defaultSelectionTTL
	}
	return time.Duration(c.Selection.TTLMinutes) * time.Minute
}

// HistoryMax returns the number of search history entries kept.
func (c *Config) HistoryMax() int {
	if c.History.Max <= 0 {
		return defaultHistoryMax
	}
	return c.History.Max
}
