// Package httpapi exposes the contact-submission endpoint and the
// role-gated admin surface over HTTP.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arguslabs/argus"
	"github.com/arguslabs/argus/notify"
	"github.com/arguslabs/argus/ratelimit"
	"github.com/arguslabs/argus/store"
)

const (
	maxNameLen    = 100
	maxCompanyLen = 100
	maxMessageLen = 2000

	// DefaultOriginLimit is the per-minute ceiling for the network-origin
	// scope; DefaultIdentityLimit the lower ceiling per claimed identity.
	DefaultOriginLimit   = 5
	DefaultIdentityLimit = 3
)

// local@domain with exactly one @ and a dotted domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactHandler handles contact-form submissions and the admin surface
// over the submission store.
type ContactHandler struct {
	store         store.SubmissionStore
	mailer        notify.Mailer
	limiter       ratelimit.Checker
	geoip         *argus.GeoIPReader
	originLimit   int
	identityLimit int
	log           *slog.Logger
	now           func() time.Time
}

// NewContactHandler wires the handler. mailer and geoip may be nil; limits
// of zero fall back to the defaults.
func NewContactHandler(st store.SubmissionStore, mailer notify.Mailer, limiter ratelimit.Checker, geoip *argus.GeoIPReader, log *slog.Logger) *ContactHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ContactHandler{
		store:         st,
		mailer:        mailer,
		limiter:       limiter,
		geoip:         geoip,
		originLimit:   DefaultOriginLimit,
		identityLimit: DefaultIdentityLimit,
		log:           log,
		now:           time.Now,
	}
}

// SetLimits overrides the per-scope ceilings.
func (h *ContactHandler) SetLimits(origin, identity int) {
	if origin > 0 {
		h.originLimit = origin
	}
	if identity > 0 {
		h.identityLimit = identity
	}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

type contactResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	// Validation errors reject before any side effect.
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing required fields: name, email, message",
		})
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email format"})
		return
	}

	ip := argus.RealIP(r)
	identity := strings.ToLower(req.Email)

	// Origin scope first; if it denies, the identity scope is never
	// evaluated so origin-blocked requests cannot probe identity state.
	origin, err := h.limiter.Check(ctx, ratelimit.ScopeOrigin, ip, h.originLimit)
	if err != nil {
		h.log.Error("httpapi: origin rate check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Rate limiter unavailable"})
		return
	}
	if !origin.Allowed {
		h.log.Info("httpapi: rate limit exceeded", "scope", "origin", "ip", ip)
		rateLimitDeniedTotal.WithLabelValues(string(ratelimit.ScopeOrigin)).Inc()
		h.writeRateLimited(w, origin)
		return
	}

	ident, err := h.limiter.Check(ctx, ratelimit.ScopeIdentity, identity, h.identityLimit)
	if err != nil {
		h.log.Error("httpapi: identity rate check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Rate limiter unavailable"})
		return
	}
	if !ident.Allowed {
		h.log.Info("httpapi: rate limit exceeded", "scope", "identity", "identity", identity)
		rateLimitDeniedTotal.WithLabelValues(string(ratelimit.ScopeIdentity)).Inc()
		h.writeRateLimited(w, ident)
		return
	}

	device := argus.ExtractDeviceSummary(r)

	// Truncate before any downstream use.
	sub := &store.Submission{
		ID:        uuid.NewString(),
		Name:      truncate(req.Name, maxNameLen),
		Email:     req.Email,
		Company:   truncate(req.Company, maxCompanyLen),
		Message:   truncate(req.Message, maxMessageLen),
		IP:        ip,
		Browser:   device.Browser,
		OS:        device.OS,
		Device:    device.DeviceType,
		Status:    store.StatusUnread,
		CreatedAt: h.now(),
	}
	if h.geoip != nil {
		loc := h.geoip.LookupWithFallback(ip)
		sub.City = loc.City
		sub.Country = loc.Country
	}

	if err := h.store.Insert(sub); err != nil {
		h.log.Error("httpapi: failed to save submission", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save submission"})
		return
	}
	submissionsSavedTotal.Inc()
	h.log.Info("httpapi: submission saved", "id", sub.ID, "ip", ip)

	setRateHeaders(w, origin)

	if h.mailer == nil || !h.mailer.Configured() {
		writeJSON(w, http.StatusOK, contactResponse{
			Success: true,
			Message: "Form saved successfully. Email service not configured.",
		})
		return
	}

	emailID, err := h.mailer.Send(ctx, notify.Message{
		Name:    sub.Name,
		Email:   sub.Email,
		Company: sub.Company,
		Body:    sub.Message,
		IP:      ip,
		Device:  device.String(),
		Locale:  requestLocale(r),
	})
	if err != nil {
		// The record is already durably saved; a notification failure is
		// secondary and must not read as a failed submission.
		h.log.Error("httpapi: email notification failed", "id", sub.ID, "error", err)
		writeJSON(w, http.StatusOK, contactResponse{
			Success: false,
			Error:   err.Error(),
			Message: "Form saved but email notification failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, contactResponse{Success: true, EmailID: emailID})
}

// ListSubmissions handles GET /api/submissions.
func (h *ContactHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListRecent()
	if err != nil {
		h.log.Error("httpapi: failed to list submissions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list submissions"})
		return
	}
	if subs == nil {
		subs = []*store.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/submissions/{id}/status.
func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	status := store.Status(req.Status)
	if !status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid status: must be unread, read or responded",
		})
		return
	}

	switch err := h.store.UpdateStatus(id, status); {
	case err == store.ErrNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Submission not found"})
	case err != nil:
		h.log.Error("httpapi: failed to update status", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update status"})
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (h *ContactHandler) writeRateLimited(w http.ResponseWriter, res ratelimit.Result) {
	setRateHeaders(w, res)
	w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter(h.now())))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":      "Too many requests. Please try again later.",
		"retryAfter": res.RetryAfter(h.now()),
	})
}

func setRateHeaders(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// requestLocale describes the sender's language and timezone, as far as
// the request reveals them.
func requestLocale(r *http.Request) string {
	fp := argus.FingerprintFromRequest(r)
	locale := fp.Language
	if fp.Timezone != "" {
		if locale != "" {
			locale += ", "
		}
		locale += fp.Timezone
	}
	return locale
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
