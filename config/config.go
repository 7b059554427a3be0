// Package config holds the environment-driven configuration for the gateway.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config is populated from the environment via envdecode struct tags.
// Command-line flags may override individual fields per command.
type Config struct {
	// ClientName is sent as the User-Agent on every upstream call. VRChat
	// requires a distinctive client identifier. ENV: CLIENT_NAME
	ClientName string `env:"CLIENT_NAME,default=vrcbridge/1.0"`

	// APIBase is the upstream API root. ENV: VRCHAT_API_BASE
	APIBase string `env:"VRCHAT_API_BASE,default=https://api.vrchat.cloud/api/1"`

	// TokenFile is the path of the persisted session record in local mode.
	// ENV: TOKEN_FILE
	TokenFile string `env:"TOKEN_FILE,default=data/auth/account.json"`

	// Distant selects remote mode: the session record is fetched from
	// DistantURL instead of the local token file. ENV: IS_DISTANT
	Distant bool `env:"IS_DISTANT,default=false"`

	// DistantURL is the remote session record source. Required when
	// Distant is set. ENV: DISTANT_URL_CONTEXT
	DistantURL string `env:"DISTANT_URL_CONTEXT,default="`

	// Port the HTTP server listens on. ENV: PORT
	Port int `env:"PORT,default=8080"`

	// EventLogFile is the bbolt database holding the auth event log.
	// ENV: EVENT_LOG_FILE
	EventLogFile string `env:"EVENT_LOG_FILE,default=data/events.db"`

	// CallsPerMinute and CallsPerHour are the per-client admission caps.
	// ENV: RATE_LIMIT_PER_MINUTE / RATE_LIMIT_PER_HOUR
	CallsPerMinute int `env:"RATE_LIMIT_PER_MINUTE,default=60"`
	CallsPerHour   int `env:"RATE_LIMIT_PER_HOUR,default=1000"`

	// RecheckInterval is how often the serving process re-validates the
	// session cookie against the upstream, in seconds. Zero disables the
	// re-check loop. ENV: AUTH_RECHECK_INTERVAL
	RecheckIntervalSeconds int `env:"AUTH_RECHECK_INTERVAL,default=86400"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that envdecode cannot express.
func (c Config) Validate() error {
	if c.Distant && c.DistantURL == "" {
		return fmt.Errorf("IS_DISTANT is set but DISTANT_URL_CONTEXT is empty")
	}
	if c.CallsPerMinute <= 0 || c.CallsPerHour <= 0 {
		return fmt.Errorf("rate limit caps must be positive")
	}
	return nil
}
