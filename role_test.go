package argus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGateAllow(t *testing.T) {
	admin := NewGate(RoleSourceFunc(func(ctx context.Context, role string) (bool, error) {
		return role == RoleAdmin, nil
	}), RoleAdmin, nil)
	if !admin.Allow(context.Background()) {
		t.Error("Expected allow for a caller holding the role")
	}

	denied := NewGate(RoleSourceFunc(func(ctx context.Context, role string) (bool, error) {
		return false, nil
	}), RoleAdmin, nil)
	if denied.Allow(context.Background()) {
		t.Error("Expected deny for a caller without the role")
	}
}

func TestGateFailsClosed(t *testing.T) {
	g := NewGate(RoleSourceFunc(func(ctx context.Context, role string) (bool, error) {
		return true, errors.New("role backend unavailable")
	}), RoleAdmin, nil)

	if g.Allow(context.Background()) {
		t.Error("A RoleSource error must deny")
	}
}

func TestGateMiddleware(t *testing.T) {
	g := NewGate(RoleSourceFunc(func(ctx context.Context, role string) (bool, error) {
		return AuthorizationFromContext(ctx) == "Bearer admin-token", nil
	}), RoleAdmin, nil)

	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Authorized request passes through.
	r := httptest.NewRequest("GET", "/api/submissions", nil)
	r.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for authorized request, got %d", w.Code)
	}

	// Unauthorized request is denied with an explicit error body.
	r = httptest.NewRequest("GET", "/api/submissions", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for unauthorized request, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "admin privileges required") {
		t.Errorf("Expected access-denied body, got %q", w.Body.String())
	}
}

func TestAuthorizationContext(t *testing.T) {
	ctx := context.Background()
	if got := AuthorizationFromContext(ctx); got != "" {
		t.Errorf("Expected empty credential on a bare context, got %q", got)
	}

	ctx = WithAuthorization(ctx, "Bearer tok")
	if got := AuthorizationFromContext(ctx); got != "Bearer tok" {
		t.Errorf("Expected stored credential, got %q", got)
	}
}
