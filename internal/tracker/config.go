package tracker

import (
	"os"
	"time"
)

// Config holds service settings.
type Config struct {
	// SyncTimeout bounds each background call to the account API.
	// Default: 10s.
	SyncTimeout time.Duration

	// Location decides where one calendar day ends for streaks.
	// Default: time.Local.
	Location *time.Location

	// AutoSyncInterval is how often AutoSync refreshes. Default: 5m.
	AutoSyncInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SyncTimeout:      10 * time.Second,
		Location:         time.Local,
		AutoSyncInterval: 5 * time.Minute,
	}
}

// ConfigFromEnv builds a Config from AWWAL_TIMEZONE and
// AWWAL_SYNC_INTERVAL, falling back to defaults for unset or invalid values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if tz := os.Getenv("AWWAL_TIMEZONE"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Location = loc
		}
	}
	if v := os.Getenv("AWWAL_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AutoSyncInterval = d
		}
	}

	return cfg
}
