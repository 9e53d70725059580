package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	yamlContent := []byte(`
api:
  base_url: "http://api.example.test:8000"
  timeout: 15s
storage:
  state_path: "/tmp/marketdesk/state.db"
logging:
  level: "debug"
  file: "/tmp/marketdesk/client.log"
  max_size_mb: 10
  max_backups: 5
refresh:
  interval: 2m
sentiment:
  days_ago: 14
`)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, yamlContent, 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("MARKETDESK_API_URL")
	os.Unsetenv("MARKETDESK_STATE_PATH")
	os.Unsetenv("MARKETDESK_LOG_FILE")
	os.Unsetenv("MARKETDESK_REFRESH_INTERVAL")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.API.BaseURL != "http://api.example.test:8000" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://api.example.test:8000")
	}
	if cfg.API.Timeout.Std() != 15*time.Second {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout.Std(), 15*time.Second)
	}
	if cfg.Storage.StatePath != "/tmp/marketdesk/state.db" {
		t.Errorf("Storage.StatePath = %q, want %q", cfg.Storage.StatePath, "/tmp/marketdesk/state.db")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("Logging.MaxSizeMB = %d, want %d", cfg.Logging.MaxSizeMB, 10)
	}
	if cfg.Refresh.Interval.Std() != 2*time.Minute {
		t.Errorf("Refresh.Interval = %v, want %v", cfg.Refresh.Interval.Std(), 2*time.Minute)
	}
	if cfg.Sentiment.DaysAgo != 14 {
		t.Errorf("Sentiment.DaysAgo = %d, want %d", cfg.Sentiment.DaysAgo, 14)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	os.Unsetenv("MARKETDESK_API_URL")
	os.Unsetenv("MARKETDESK_REFRESH_INTERVAL")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() on missing file returned error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("API.BaseURL = %q, want default", cfg.API.BaseURL)
	}
	if cfg.Refresh.Interval.Std() != 5*time.Minute {
		t.Errorf("Refresh.Interval = %v, want 5m default", cfg.Refresh.Interval)
	}
	if cfg.Sentiment.DaysAgo != 30 {
		t.Errorf("Sentiment.DaysAgo = %d, want 30 default", cfg.Sentiment.DaysAgo)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
api:
  base_url: "http://yaml-host:8000"
storage:
  state_path: "/yaml/state.db"
`)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, yamlContent, 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	os.Setenv("MARKETDESK_API_URL", "http://env-host:9000")
	os.Setenv("MARKETDESK_REFRESH_INTERVAL", "90s")
	defer os.Unsetenv("MARKETDESK_API_URL")
	defer os.Unsetenv("MARKETDESK_REFRESH_INTERVAL")
	os.Unsetenv("MARKETDESK_STATE_PATH")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.API.BaseURL != "http://env-host:9000" {
		t.Errorf("API.BaseURL = %q, want %q (env override)", cfg.API.BaseURL, "http://env-host:9000")
	}
	// state_path should remain from YAML since no env override was set.
	if cfg.Storage.StatePath != "/yaml/state.db" {
		t.Errorf("Storage.StatePath = %q, want %q (from YAML)", cfg.Storage.StatePath, "/yaml/state.db")
	}
	if cfg.Refresh.Interval.Std() != 90*time.Second {
		t.Errorf("Refresh.Interval = %v, want 90s (env override)", cfg.Refresh.Interval)
	}
}
