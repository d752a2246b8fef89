package remote

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds account API settings.
type Config struct {
	// BaseURL is the API origin, without the /api prefix.
	BaseURL string

	// Timeout bounds a single HTTP request. Expiry counts as a network
	// failure. Default: 10s.
	Timeout time.Duration

	Retry RetryConfig
}

// RetryConfig configures retries of idempotent calls.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:3001",
		Timeout: 10 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("AWWAL_API_URL"); u != "" {
		cfg.BaseURL = u
	}
	if v := os.Getenv("AWWAL_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// Validate checks that the base URL is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API URL %q must use http or https", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
