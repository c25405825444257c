package argus

import "errors"

var (
	// ErrNoSession is returned when an operation requires an authenticated
	// session and none exists.
	ErrNoSession = errors.New("argus: no active session")

	// ErrNoProvider is returned by New when no session provider is configured.
	ErrNoProvider = errors.New("argus: session provider is required")

	// ErrFingerprintMismatch is returned when the current environment
	// fingerprint does not match the one captured for this session.
	ErrFingerprintMismatch = errors.New("argus: session fingerprint mismatch")

	// ErrSessionExpired is returned when the guard has expired the session,
	// either through inactivity or the maximum duration ceiling.
	ErrSessionExpired = errors.New("argus: session expired")

	// ErrRefreshFailed is returned by ExtendSession when the identity provider
	// could not refresh the session. The guard state is left unchanged.
	ErrRefreshFailed = errors.New("argus: session refresh failed")

	// ErrGeoIPDatabaseNotConfigured is returned when a GeoIP lookup is
	// attempted without configuring the GeoIP database path.
	ErrGeoIPDatabaseNotConfigured = errors.New("argus: GeoIP database path not configured")

	// ErrGeoIPLookupFailed is returned when IP geolocation lookup fails.
	ErrGeoIPLookupFailed = errors.New("argus: GeoIP lookup failed")

	// ErrInvalidIP is returned when an invalid IP address is provided.
	ErrInvalidIP = errors.New("argus: invalid IP address")
)
