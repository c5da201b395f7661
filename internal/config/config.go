package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-driven settings shared by the server and
// CLI commands. API keys are read from the environment (optionally via a
// .env file loaded by the root command).
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	SerpAPIKey   string `env:"SERPAPI_KEY"`

	// SerpAPIBaseURL is overridable for tests.
	SerpAPIBaseURL string `env:"SERPAPI_BASE_URL" envDefault:"https://serpapi.com/search.json"`

	// OutputDir is the base directory holding sessions/ and archive/.
	OutputDir string `env:"REVIBE_OUTPUT_DIR" envDefault:"output"`

	// SessionRetentionDays bounds how long non-archived sessions are kept.
	SessionRetentionDays int `env:"REVIBE_SESSION_RETENTION_DAYS" envDefault:"30"`

	// RequestTimeout caps one full pipeline run. It is applied at the
	// caller boundary (HTTP handler or CLI), not inside the pipeline.
	RequestTimeout time.Duration `env:"REVIBE_REQUEST_TIMEOUT" envDefault:"5m"`

	// ModesFile optionally points at a YAML file overriding the built-in
	// fast/standard parameter tables.
	ModesFile string `env:"REVIBE_MODES_FILE"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
