package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// ErrMissingAPIKey halts startup when no generation credential is configured.
var ErrMissingAPIKey = errors.New("Ingen API-nyckel hittad. Ange GOOGLE_API_KEY i secrets-filen eller miljön")

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Session   SessionConfig
	Gemini    GeminiConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StorageConfig locates the persisted plan document.
type StorageConfig struct {
	DataFile     string `envconfig:"DATA_FILE" default:"iso27001_data.json"`
	ExportPrefix string `envconfig:"EXPORT_PREFIX" default:"iso27001_plan"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
	MaxSessions   int           `envconfig:"SESSION_MAX" default:"1000"`
}

// GeminiConfig holds generation API settings. APIKey is filled from the
// secrets file or the GOOGLE_API_KEY variable.
type GeminiConfig struct {
	APIKey      string `envconfig:"GOOGLE_API_KEY"`
	SecretsFile string `envconfig:"SECRETS_FILE" default:".streamlit/secrets.toml"`
	Backend     string `envconfig:"GENERATOR_BACKEND" default:"sdk"`
	BaseURL     string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Model       string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	VisionModel string `envconfig:"GEMINI_VISION_MODEL" default:"gemini-2.0-flash"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// secrets mirrors the hosted secret store layout: a flat TOML table.
type secrets struct {
	GoogleAPIKey string `toml:"GOOGLE_API_KEY"`
}

// Load reads configuration from the environment, then resolves the API
// key, preferring the secrets file over the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	key, err := readSecretsKey(cfg.Gemini.SecretsFile)
	if err != nil {
		return nil, err
	}
	if key != "" {
		cfg.Gemini.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that must hold before anything is served.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.Gemini.Backend {
	case "sdk", "rest":
	default:
		return fmt.Errorf("unknown GENERATOR_BACKEND %q: supported backends are sdk, rest", c.Gemini.Backend)
	}
	if c.Storage.DataFile == "" {
		return fmt.Errorf("DATA_FILE must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// readSecretsKey returns the key from the secrets file. A missing file is
// not an error; a malformed one is.
func readSecretsKey(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	var s secrets
	if err := toml.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}
	return strings.TrimSpace(s.GoogleAPIKey), nil
}

// Default returns the default configuration without a credential.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			DataFile:     "iso27001_data.json",
			ExportPrefix: "iso27001_plan",
		},
		Session: SessionConfig{
			TTL:           12 * time.Hour,
			SweepInterval: 5 * time.Minute,
			MaxSessions:   1000,
		},
		Gemini: GeminiConfig{
			SecretsFile: ".streamlit/secrets.toml",
			Backend:     "sdk",
			BaseURL:     "https://generativelanguage.googleapis.com",
			Model:       "gemini-2.0-flash",
			VisionModel: "gemini-2.0-flash",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
