// Package config loads the companion configuration from a TOML file, with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file values.
const (
	EnvAPIKey     = "LOR_API_KEY"
	EnvPort       = "LOR_PORT"
	EnvServerPort = "LOR_SERVER_PORT"
	EnvDBPath     = "LOR_DB_PATH"
)

// Set bundle names: a set number with an optional expansion suffix.
var setNamePattern = regexp.MustCompile(`^[1-9]\d*[a-z]*$`)

// DirName is the per-user data directory, relative to the home directory.
const DirName = ".lor-companion"

// Config represents the application configuration.
type Config struct {
	Client  ClientConfig  `toml:"client"`
	Catalog CatalogConfig `toml:"catalog"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	App     AppConfig     `toml:"app"`
}

// ClientConfig contains the game client's local API settings.
type ClientConfig struct {
	Port               int    `toml:"port"`                // Local API port (default 21337)
	APIKey             string `toml:"api_key"`             // Optional X-Riot-Token
	PollInterval       string `toml:"poll_interval"`       // e.g. "1s"
	ExpeditionInterval string `toml:"expedition_interval"` // e.g. "10s"
	Timeout            string `toml:"timeout"`             // Per-request timeout
	MaxRetries         int    `toml:"max_retries"`
}

// CatalogConfig contains Data Dragon set bundle settings.
type CatalogConfig struct {
	Dir          string   `toml:"dir"`           // Empty means ~/.lor-companion/sets
	Locale       string   `toml:"locale"`        // e.g. "en_us"
	Sets         []string `toml:"sets"`          // Set bundles, e.g. "1" or "6cde"
	Lite         bool     `toml:"lite"`          // Bundles without card art
	AutoDownload bool     `toml:"auto_download"` // Download missing sets on startup
	Watch        bool     `toml:"watch"`         // Reload when set files change
}

// StorageConfig contains database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`

	// BackupDir defaults to a "backups" directory next to the database.
	BackupDir      string `toml:"backup_dir"`
	BackupInterval string `toml:"backup_interval"` // empty or "0s" disables scheduled backups
	BackupKeep     int    `toml:"backup_keep"`
}

// ServerConfig contains the REST/WebSocket API settings.
type ServerConfig struct {
	Enabled        bool     `toml:"enabled"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

func dataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, DirName)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Port:               21337,
			PollInterval:       "1s",
			ExpeditionInterval: "10s",
			Timeout:            "5s",
			MaxRetries:         2,
		},
		Catalog: CatalogConfig{
			Locale:       "en_us",
			Sets:         []string{"1", "2", "3", "4", "5", "6", "6cde", "7", "7b", "8", "9"},
			Lite:         true,
			AutoDownload: true,
			Watch:        true,
		},
		Storage: StorageConfig{
			DBPath:         filepath.Join(dataDir(), "lor.db"),
			BackupInterval: "24h",
			BackupKeep:     7,
		},
		Server: ServerConfig{
			Enabled:        true,
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
	}
}

// DefaultPath returns ~/.lor-companion/config.toml.
func DefaultPath() string {
	return filepath.Join(dataDir(), "config.toml")
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the TOML file at path over the defaults, then applies
// .env files and environment overrides. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := LoadEnvFiles(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadEnvFiles loads the given .env files into the process environment,
// skipping files that do not exist. Variables already set are kept.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with LOR_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		c.Client.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Client.Port = port
	}
	if v, ok := os.LookupEnv(EnvServerPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvServerPort, v, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		c.Storage.DBPath = v
	}
	return nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultPath())
}

// SaveTo writes the configuration to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if !validPort(c.Client.Port) {
		return fmt.Errorf("invalid client port: %d", c.Client.Port)
	}
	for name, value := range map[string]string{
		"poll interval":       c.Client.PollInterval,
		"expedition interval": c.Client.ExpeditionInterval,
		"client timeout":      c.Client.Timeout,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive: %q", name, value)
		}
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative: %d", c.Client.MaxRetries)
	}

	if c.Catalog.Locale == "" {
		return errors.New("catalog locale is required")
	}
	for _, set := range c.Catalog.Sets {
		if !setNamePattern.MatchString(set) {
			return fmt.Errorf("invalid catalog set: %q", set)
		}
	}

	if c.Storage.DBPath == "" {
		return errors.New("storage db_path is required")
	}
	if c.Storage.BackupInterval != "" {
		d, err := time.ParseDuration(c.Storage.BackupInterval)
		if err != nil {
			return fmt.Errorf("invalid backup interval %q: %w", c.Storage.BackupInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("backup interval cannot be negative: %q", c.Storage.BackupInterval)
		}
	}
	if c.Storage.BackupKeep < 0 {
		return fmt.Errorf("backup keep cannot be negative: %d", c.Storage.BackupKeep)
	}

	if c.Server.Enabled && !validPort(c.Server.Port) {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// GetPollInterval returns the tracker poll interval as a duration.
func (c *Config) GetPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Client.PollInterval)
}

// GetExpeditionInterval returns the expedition poll interval as a duration.
func (c *Config) GetExpeditionInterval() (time.Duration, error) {
	return time.ParseDuration(c.Client.ExpeditionInterval)
}

// GetClientTimeout returns the local API request timeout as a duration.
func (c *Config) GetClientTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Client.Timeout)
}

// GetBackupInterval returns the scheduled backup interval. Zero means
// scheduled backups are disabled.
func (c *Config) GetBackupInterval() (time.Duration, error) {
	if c.Storage.BackupInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Storage.BackupInterval)
}

// CatalogDir returns the set file directory, defaulting to ~/.lor-companion/sets.
func (c *Config) CatalogDir() string {
	if c.Catalog.Dir != "" {
		return c.Catalog.Dir
	}
	return filepath.Join(dataDir(), "sets")
}
