package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "15s" or "5m" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the marketdesk client.
type Config struct {
	API       API       `yaml:"api"`
	Storage   Storage   `yaml:"storage"`
	Logging   Logging   `yaml:"logging"`
	Refresh   Refresh   `yaml:"refresh"`
	Sentiment Sentiment `yaml:"sentiment"`
}

// API locates the backend HTTP API.
type API struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// Storage holds the path of the local state database. The only thing kept
// there is session-adjacent state such as the auth token; fetched market
// data is never persisted.
type Storage struct {
	StatePath string `yaml:"state_path"`
}

// Logging configures the application logger. The TUI owns stdout, so logs go
// to a rotated file.
type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Refresh controls the periodic watchlist quote refresh.
type Refresh struct {
	Interval Duration `yaml:"interval"`
}

// Sentiment holds defaults for the news-sentiment view.
type Sentiment struct {
	DaysAgo int `yaml:"days_ago"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
// A missing file is not an error; defaults plus environment are enough to run
// against a local backend.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKETDESK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MARKETDESK_STATE_PATH"); v != "" {
		cfg.Storage.StatePath = v
	}
	if v := os.Getenv("MARKETDESK_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MARKETDESK_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Refresh.Interval = Duration(d)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = Duration(10 * time.Second)
	}
	if cfg.Storage.StatePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Storage.StatePath = filepath.Join(home, ".marketdesk", "state.db")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(os.TempDir(), "marketdesk.log")
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 20
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Refresh.Interval == 0 {
		cfg.Refresh.Interval = Duration(5 * time.Minute)
	}
	if cfg.Sentiment.DaysAgo == 0 {
		cfg.Sentiment.DaysAgo = 30
	}
}
