package config

import "time"

// PartnersConfig contains the partner feed endpoints. A partner with an empty
// URL is not registered.
type PartnersConfig struct {
	PartnerAURL string `env:"PARTNER_A_URL" envDefault:""`
	PartnerBURL string `env:"PARTNER_B_URL" envDefault:""`
}

// FetchConfig tunes the per-partner fetch behaviour.
type FetchConfig struct {
	// Timeout bounds a single fetch attempt against one partner feed.
	Timeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"5s"`
	// MaxAttempts caps attempts per partner, including the first.
	MaxAttempts int `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`
	// BackoffBase is the delay before the first retry; subsequent retries
	// double it.
	BackoffBase time.Duration `env:"FETCH_BACKOFF_BASE" envDefault:"1s"`
}

// Sanitize applies guardrails to fetch configuration values.
func (f *FetchConfig) Sanitize() {
	if f.Timeout <= 0 {
		f.Timeout = 5 * time.Second
	}
	if f.MaxAttempts < 1 {
		f.MaxAttempts = 1
	}
	if f.BackoffBase <= 0 {
		f.BackoffBase = time.Second
	}
}

// StatsdConfig configures the StatsD metrics sink. Metrics are disabled
// unless both Enabled and Address are set.
type StatsdConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Address string `env:"ADDRESS" envDefault:""`
	Prefix  string `env:"PREFIX"  envDefault:"vestigas"`
}

// ScoringConfig contains the reliability score weights and the TTL for the
// finished-result cache.
type ScoringConfig struct {
	CompletenessWeight float64 `env:"SCORE_WEIGHT_COMPLETENESS" envDefault:"1"`
	DeliveredWeight    float64 `env:"SCORE_WEIGHT_DELIVERED"    envDefault:"2"`
	SignedWeight       float64 `env:"SCORE_WEIGHT_SIGNED"       envDefault:"2"`

	ResultCacheTTL time.Duration `env:"RESULT_CACHE_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to scoring configuration values.
func (s *ScoringConfig) Sanitize() {
	if s.CompletenessWeight < 0 {
		s.CompletenessWeight = 0
	}
	if s.DeliveredWeight < 0 {
		s.DeliveredWeight = 0
	}
	if s.SignedWeight < 0 {
		s.SignedWeight = 0
	}
	if s.ResultCacheTTL <= 0 {
		s.ResultCacheTTL = 5 * time.Minute
	}
}
