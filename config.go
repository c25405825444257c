package argus

import (
	"log/slog"
	"time"
)

// Config contains configuration options for the session guard.
type Config struct {
	// SessionTimeout is the inactivity budget before the session expires.
	// Default: 30 minutes.
	SessionTimeout time.Duration

	// WarningTime is the lead time before expiry at which the guard enters
	// the warning state and starts the countdown.
	// Default: 5 minutes.
	WarningTime time.Duration

	// MaxSessionDuration is the absolute session lifetime ceiling, enforced
	// regardless of activity.
	// Default: 8 hours.
	MaxSessionDuration time.Duration

	// TickInterval is how often the guard re-evaluates the session state.
	// It is clamped to WarningTime so a warning can never be skipped over.
	// Default: 60 seconds.
	TickInterval time.Duration

	// Provider is the identity/session provider. Required.
	Provider SessionProvider

	// Environment supplies fingerprint attributes.
	// Default: HostEnvironment.
	Environment EnvironmentSource

	// Fingerprints persists the fingerprint captured at sign-in.
	// Default: in-memory store.
	Fingerprints FingerprintStore

	// SecureTransport records whether the session travels over a secured
	// channel. Informational; surfaced through SecurityState.
	SecureTransport bool

	// Hooks receive lifecycle notifications. All hooks are optional.
	Hooks Hooks

	// Clock abstracts time for testing. Default: the system clock.
	Clock Clock

	// Logger used by the guard. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SessionTimeout:     30 * time.Minute,
		WarningTime:        5 * time.Minute,
		MaxSessionDuration: 8 * time.Hour,
		TickInterval:       60 * time.Second,
	}
}

// AdminConfig returns a Config with the shorter budgets appropriate for
// administrative contexts.
func AdminConfig() Config {
	return Config{
		SessionTimeout:     15 * time.Minute,
		WarningTime:        2 * time.Minute,
		MaxSessionDuration: 4 * time.Hour,
		TickInterval:       60 * time.Second,
	}
}

// applyDefaults fills in default values for zero-value fields.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.SessionTimeout <= 0 {
		c.SessionTimeout = defaults.SessionTimeout
	}
	if c.WarningTime <= 0 {
		c.WarningTime = defaults.WarningTime
	}
	if c.WarningTime > c.SessionTimeout {
		c.WarningTime = c.SessionTimeout
	}
	if c.MaxSessionDuration <= 0 {
		c.MaxSessionDuration = defaults.MaxSessionDuration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.TickInterval > c.WarningTime {
		c.TickInterval = c.WarningTime
	}
	if c.Environment == nil {
		c.Environment = HostEnvironment{}
	}
	if c.Fingerprints == nil {
		c.Fingerprints = NewMemoryFingerprintStore()
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
