package ledger

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the recognized ledger client options.
type Config struct {
	BaseURL string        `env:"VERIDION_API_URL"`
	APIKey  string        `env:"VERIDION_API_KEY"`
	AgentID string        `env:"VERIDION_AGENT_ID"`
	Timeout time.Duration `env:"VERIDION_TIMEOUT"`
}

// DefaultConfig returns the reference defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		AgentID: "default-agent",
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv loads the VERIDION_* environment variables on top of the
// defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.AgentID == "" {
		c.AgentID = def.AgentID
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
