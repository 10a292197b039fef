// Package config defines the application configuration, loaded from
// environment variables with github.com/caarlos0/env. See the individual
// files for the available variables:
//   - database.go: PostgreSQL and Redis configuration
//   - http.go: HTTP server configuration
//   - services.go: partner feeds, fetch behaviour and scoring weights
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
type AppConfig struct {
	// IsDev controls development mode behavior. When set and no database is
	// configured, in-memory stores are used. Set DEV=true for development.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Partner feed configuration
	Partners PartnersConfig

	// Fetch retry/timeout configuration
	Fetch FetchConfig

	// Scoring weight configuration
	Scoring ScoringConfig

	// StatsD metrics sink
	Statsd StatsdConfig `envPrefix:"STATSD_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// It should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Fetch.Sanitize()
	c.Scoring.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
