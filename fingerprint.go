package argus

import (
	"os"
	"runtime"
	"strings"
	"time"
)

// Fingerprint is an immutable snapshot of environment attributes captured
// once per authentication event. It is a weak signal used to detect session
// hijacking; it is only ever compared against another fingerprint captured
// for the same logical session.
type Fingerprint struct {
	UserAgent string `json:"user_agent"`
	Screen    string `json:"screen"`
	Timezone  string `json:"timezone"`
	Language  string `json:"language"`
	Platform  string `json:"platform"`
}

// EnvironmentSource provides the ambient attributes a fingerprint is built
// from. Implementations must not fail; attributes that cannot be determined
// are reported as empty strings.
type EnvironmentSource interface {
	UserAgent() string
	Screen() string
	Timezone() string
	Language() string
	Platform() string
}

// GenerateFingerprint captures a fingerprint from the given source.
// It always succeeds; a nil source yields a zero fingerprint.
func GenerateFingerprint(src EnvironmentSource) Fingerprint {
	if src == nil {
		return Fingerprint{}
	}
	return Fingerprint{
		UserAgent: src.UserAgent(),
		Screen:    src.Screen(),
		Timezone:  src.Timezone(),
		Language:  src.Language(),
		Platform:  src.Platform(),
	}
}

// ValidateFingerprint reports whether the current fingerprint matches the
// stored one. Only user agent, platform and timezone participate in the
// match: those are the attributes least likely to change under a user's own
// control, while screen dimensions and language drift legitimately (window
// resize, runtime locale negotiation) and would cause false positives.
// The function is pure; callers react to a mismatch by forcing sign-out.
func ValidateFingerprint(stored, current Fingerprint) bool {
	return stored.UserAgent == current.UserAgent &&
		stored.Platform == current.Platform &&
		stored.Timezone == current.Timezone
}

// HostEnvironment is an EnvironmentSource describing the local process: the
// OS as platform, the local zone as timezone and the LANG environment
// variable as language. AppUserAgent identifies the embedding application.
type HostEnvironment struct {
	AppUserAgent string
}

func (h HostEnvironment) UserAgent() string { return h.AppUserAgent }

func (HostEnvironment) Screen() string { return "" }

func (HostEnvironment) Timezone() string {
	name, _ := time.Now().Zone()
	return name
}

func (HostEnvironment) Language() string {
	lang := os.Getenv("LANG")
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

func (HostEnvironment) Platform() string { return runtime.GOOS }

// FingerprintStore persists the fingerprint captured at sign-in so it can be
// validated against later captures for the same session.
type FingerprintStore interface {
	// Load returns the stored fingerprint, or ok=false when none is stored.
	Load() (fp Fingerprint, ok bool, err error)

	// Save replaces the stored fingerprint.
	Save(fp Fingerprint) error

	// Delete removes the stored fingerprint.
	Delete() error
}
