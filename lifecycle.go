package argus

import "time"

// State is the lifecycle state of the guarded session.
type State int

const (
	// StateUnauthenticated means no session exists.
	StateUnauthenticated State = iota

	// StateActive means the session is live and within its budgets.
	StateActive

	// StateWarning means expiry is imminent and the countdown is running.
	StateWarning

	// StateExpired means the guard has decided to end the session. It is a
	// transient state; forced sign-out moves the guard to Unauthenticated.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateActive:
		return "active"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ExpireReason explains why the guard expired a session.
type ExpireReason int

const (
	// ExpireIdle means the inactivity budget was exhausted.
	ExpireIdle ExpireReason = iota

	// ExpireMaxDuration means the absolute session lifetime ceiling was hit,
	// regardless of how recent the last activity was.
	ExpireMaxDuration

	// ExpireFingerprint means the environment fingerprint stopped matching
	// the one captured for this session.
	ExpireFingerprint
)

func (r ExpireReason) String() string {
	switch r {
	case ExpireIdle:
		return "inactivity"
	case ExpireMaxDuration:
		return "max-session-duration"
	case ExpireFingerprint:
		return "fingerprint-mismatch"
	default:
		return "unknown"
	}
}

// Hooks receive lifecycle notifications from the guard. Hooks are invoked
// outside the guard's internal lock, so they may call back into the guard
// (for example to extend the session from a warning dialog).
type Hooks struct {
	// OnWarning fires when the guard enters the warning state, with the time
	// remaining until expiry.
	OnWarning func(remaining time.Duration)

	// OnExpired fires after the guard has forced sign-out.
	OnExpired func(reason ExpireReason)

	// OnAlert fires for security alerts such as a fingerprint mismatch.
	OnAlert func(message string)
}

// SecurityState is a snapshot of the per-session security record.
type SecurityState struct {
	LastActivityAt  time.Time
	SessionStartAt  time.Time
	SecureTransport bool
}

// Evaluate computes the lifecycle state for a session given the current
// time, the last activity timestamp and the session start. It is a pure
// function of its inputs; the guard invokes it from the periodic tick.
func Evaluate(now, lastActivity, sessionStart time.Time, cfg Config) State {
	if now.Sub(sessionStart) > cfg.MaxSessionDuration {
		return StateExpired
	}

	idle := now.Sub(lastActivity)
	if idle > cfg.SessionTimeout {
		return StateExpired
	}
	if idle > cfg.SessionTimeout-cfg.WarningTime {
		return StateWarning
	}
	return StateActive
}
