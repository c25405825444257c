// Package ratelimit implements the two rate-limit layers: an advisory
// sliding-window limiter on the request-issuing side and an authoritative
// fixed-window limiter on the request-receiving side. The two layers share
// no state; the server always re-derives its own window independently of
// anything the client decided.
package ratelimit

import (
	"context"
	"time"
)

// Scope is the dimension an authoritative limit is keyed on.
type Scope string

const (
	// ScopeOrigin keys limits by originating network address.
	ScopeOrigin Scope = "origin"

	// ScopeIdentity keys limits by claimed identity, e.g. a lower-cased
	// email address.
	ScopeIdentity Scope = "identity"
)

// Result is the outcome of an authoritative rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window resets, rounded up,
// suitable for a Retry-After header.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Checker is the authoritative enforcement point. Implementations never fail
// open: a non-nil error means the caller must refuse the request.
type Checker interface {
	Check(ctx context.Context, scope Scope, id string, max int) (Result, error)
}

// key builds the record key for a (scope, identifier) pair.
func key(scope Scope, id string) string {
	return string(scope) + ":" + id
}
