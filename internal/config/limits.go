package config

import "time"

// LimitsConfig bounds per-request work.
type LimitsConfig struct {
	// MaxRows caps bookings returned by the standard scan. The response
	// carries a truncation flag when the cap bites.
	MaxRows int `yaml:"max_rows"`

	// HistoryTurns is the conversation window passed to the translator.
	HistoryTurns int `yaml:"history_turns"`

	// RequestTimeout bounds the whole ask pipeline.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultLimitsConfig returns sensible defaults.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxRows:        500,
		HistoryTurns:   6,
		RequestTimeout: 2 * time.Minute,
	}
}
