package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnv clears a variable for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvPort, EnvServerPort, EnvDBPath} {
		unsetEnv(t, key)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
	if config.Client.Port != 21337 {
		t.Errorf("expected client port 21337, got %d", config.Client.Port)
	}
	if d, _ := config.GetPollInterval(); d != time.Second {
		t.Errorf("expected 1s poll interval, got %v", d)
	}
	if d, _ := config.GetExpeditionInterval(); d != 10*time.Second {
		t.Errorf("expected 10s expedition interval, got %v", d)
	}
	if d, _ := config.GetClientTimeout(); d != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", d)
	}
	if len(config.Catalog.Sets) != 11 || config.Catalog.Sets[6] != "6cde" || config.Catalog.Sets[8] != "7b" {
		t.Errorf("expected sets 1-9 with the 6cde and 7b expansions, got %v", config.Catalog.Sets)
	}
	if filepath.Base(config.CatalogDir()) != "sets" {
		t.Errorf("expected default catalog dir to end in sets, got %s", config.CatalogDir())
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	clearOverrides(t)

	config, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if config.Server.Port != 8080 {
		t.Errorf("expected defaults, got server port %d", config.Server.Port)
	}
}

func TestLoadFrom_PartialFile(t *testing.T) {
	clearOverrides(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[client]
port = 21338
poll_interval = "500ms"

[catalog]
dir = "/data/sets"
sets = ["1", "7b"]

[app]
debug_mode = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if config.Client.Port != 21338 {
		t.Errorf("expected port 21338, got %d", config.Client.Port)
	}
	if d, _ := config.GetPollInterval(); d != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", d)
	}
	if config.Client.Timeout != "5s" {
		t.Errorf("expected unset fields to keep defaults, got timeout %q", config.Client.Timeout)
	}
	if config.CatalogDir() != "/data/sets" {
		t.Errorf("expected /data/sets, got %s", config.CatalogDir())
	}
	if len(config.Catalog.Sets) != 2 || config.Catalog.Sets[1] != "7b" {
		t.Errorf("expected sets [1 7b], got %v", config.Catalog.Sets)
	}
	if !config.App.DebugMode {
		t.Error("expected debug mode")
	}
	if !config.Server.Enabled {
		t.Error("expected server to stay enabled")
	}
}

func TestLoadFrom_InvalidFile(t *testing.T) {
	clearOverrides(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[client\nport = "), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	clearOverrides(t)
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvPort, "4000")
	t.Setenv(EnvServerPort, "9090")
	t.Setenv(EnvDBPath, "/tmp/lor.db")

	config, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if config.Client.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", config.Client.APIKey)
	}
	if config.Client.Port != 4000 {
		t.Errorf("expected port 4000, got %d", config.Client.Port)
	}
	if config.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", config.Server.Port)
	}
	if config.Storage.DBPath != "/tmp/lor.db" {
		t.Errorf("expected db path from env, got %s", config.Storage.DBPath)
	}
}

func TestLoadFrom_InvalidEnvPort(t *testing.T) {
	clearOverrides(t)
	t.Setenv(EnvPort, "not-a-port")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml")); err == nil {
		t.Error("expected an error for a non-numeric port")
	}
}

func TestLoadFrom_DotEnv(t *testing.T) {
	clearOverrides(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOR_DB_PATH=/from/dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	config, err := LoadFrom(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if config.Storage.DBPath != "/from/dotenv.db" {
		t.Errorf("expected db path from .env, got %s", config.Storage.DBPath)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	clearOverrides(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	config := DefaultConfig()
	config.Client.APIKey = "key"
	config.Server.AllowedOrigins = []string{"https://example.com"}

	if err := config.SaveTo(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Client.APIKey != "key" {
		t.Errorf("expected api key to round-trip, got %q", loaded.Client.APIKey)
	}
	if len(loaded.Server.AllowedOrigins) != 1 || loaded.Server.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("expected origins to round-trip, got %v", loaded.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"client port", func(c *Config) { c.Client.Port = 0 }},
		{"poll interval", func(c *Config) { c.Client.PollInterval = "soon" }},
		{"zero poll interval", func(c *Config) { c.Client.PollInterval = "0s" }},
		{"timeout", func(c *Config) { c.Client.Timeout = "" }},
		{"retries", func(c *Config) { c.Client.MaxRetries = -1 }},
		{"locale", func(c *Config) { c.Catalog.Locale = "" }},
		{"sets", func(c *Config) { c.Catalog.Sets = []string{"0"} }},
		{"set name", func(c *Config) { c.Catalog.Sets = []string{"six"} }},
		{"set file name", func(c *Config) { c.Catalog.Sets = []string{"7b-lite"} }},
		{"db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"backup interval", func(c *Config) { c.Storage.BackupInterval = "daily" }},
		{"negative backup interval", func(c *Config) { c.Storage.BackupInterval = "-1h" }},
		{"backup keep", func(c *Config) { c.Storage.BackupKeep = -1 }},
		{"server port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	disabled := DefaultConfig()
	disabled.Server.Enabled = false
	disabled.Server.Port = 0
	if err := disabled.Validate(); err != nil {
		t.Errorf("expected a disabled server to skip port validation, got %v", err)
	}
}

func TestGetBackupInterval(t *testing.T) {
	config := DefaultConfig()

	interval, err := config.GetBackupInterval()
	if err != nil {
		t.Fatalf("GetBackupInterval failed: %v", err)
	}
	if interval != 24*time.Hour {
		t.Errorf("expected 24h, got %v", interval)
	}

	config.Storage.BackupInterval = ""
	interval, err = config.GetBackupInterval()
	if err != nil || interval != 0 {
		t.Errorf("expected disabled interval, got %v (%v)", interval, err)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("expected empty backup interval to validate, got %v", err)
	}
}
