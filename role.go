package argus

import (
	"context"
	"log/slog"
	"net/http"
)

// RoleAdmin is the capability checked by the admin gate.
const RoleAdmin = "admin"

// RoleSource computes whether the current caller holds a role. The gate does
// not compute roles itself; it is polymorphic over any boolean-producing
// source.
type RoleSource interface {
	HasRole(ctx context.Context, role string) (bool, error)
}

// RoleSourceFunc adapts a function to the RoleSource interface.
type RoleSourceFunc func(ctx context.Context, role string) (bool, error)

func (f RoleSourceFunc) HasRole(ctx context.Context, role string) (bool, error) {
	return f(ctx, role)
}

// Gate is a binary allow/deny gate over a role signal. A RoleSource error
// denies: the gate fails closed.
type Gate struct {
	source RoleSource
	role   string
	log    *slog.Logger
}

// NewGate creates a gate for the given role. A nil logger defaults to
// slog.Default().
func NewGate(source RoleSource, role string, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{source: source, role: role, log: log}
}

// Allow reports whether the caller holds the gated role.
func (g *Gate) Allow(ctx context.Context) bool {
	ok, err := g.source.HasRole(ctx, g.role)
	if err != nil {
		g.log.Warn("argus: role lookup failed, denying", "role", g.role, "error", err)
		return false
	}
	return ok
}

type roleCtxKey int

const authorizationKey roleCtxKey = iota

// WithAuthorization stores the caller's authorization material in the
// context so a RoleSource can inspect it.
func WithAuthorization(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, authorizationKey, credential)
}

// AuthorizationFromContext returns the credential stored by
// WithAuthorization, or "".
func AuthorizationFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(authorizationKey).(string); ok {
		return v
	}
	return ""
}

// Middleware wraps an HTTP handler, serving protected content only when the
// role signal is true and an explicit access-denied result otherwise. The
// request's Authorization header is made available to the RoleSource via
// AuthorizationFromContext.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithAuthorization(r.Context(), r.Header.Get("Authorization"))
		if !g.Allow(ctx) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Access denied: ` + g.role + ` privileges required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
