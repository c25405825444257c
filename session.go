package argus

import (
	"context"
	"time"
)

// Session represents an authenticated session as issued by the identity
// provider.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired returns true if the session's token has expired.
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(s.ExpiresAt)
}

// TimeRemaining returns the time until the session token expires,
// or zero if it already has.
func (s *Session) TimeRemaining(now time.Time) time.Duration {
	if s == nil || s.ExpiresAt.IsZero() {
		return 0
	}
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sanitized returns a copy of the session with tokens removed, safe for
// logging.
func (s *Session) Sanitized() Session {
	if s == nil {
		return Session{}
	}
	out := *s
	out.AccessToken = ""
	out.RefreshToken = ""
	return out
}

// Risk classifies how exposed a session currently is.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	default:
		return "high"
	}
}

// SessionRisk rates a session by how close it is to expiry: high when less
// than 30 minutes remain (or no session exists), medium under two hours,
// low otherwise.
func SessionRisk(s *Session, now time.Time) Risk {
	if s == nil {
		return RiskHigh
	}
	remaining := s.TimeRemaining(now)
	switch {
	case remaining < 30*time.Minute:
		return RiskHigh
	case remaining < 2*time.Hour:
		return RiskMedium
	default:
		return RiskLow
	}
}

// SessionEventKind identifies a session-change notification from the
// identity provider.
type SessionEventKind string

const (
	EventSignedIn  SessionEventKind = "signed-in"
	EventSignedOut SessionEventKind = "signed-out"
)

// SessionEvent is emitted by the identity provider on session changes.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *Session
}

// SessionProvider is the identity/authentication collaborator. It issues and
// refreshes sessions and emits session-change events. All methods report
// failure distinctly from success.
type SessionProvider interface {
	// Current returns the active session, or ErrNoSession when none exists.
	Current(ctx context.Context) (*Session, error)

	// Refresh obtains a fresh session token for the active session.
	Refresh(ctx context.Context) (*Session, error)

	// SignOut revokes the active session.
	SignOut(ctx context.Context) error

	// Events returns the stream of session-change notifications. The channel
	// is closed when the provider shuts down.
	Events() <-chan SessionEvent
}
