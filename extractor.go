package argus

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// FingerprintFromRequest builds a server-side fingerprint from an HTTP
// request. User agent and language come from standard headers; screen and
// timezone are taken from the X-Screen-Resolution and X-Timezone headers
// when a client supplies them, empty otherwise. Platform is the OS name
// parsed out of the user agent, which is the closest stable analogue the
// server can observe.
func FingerprintFromRequest(r *http.Request) Fingerprint {
	ua := r.UserAgent()
	parsed := useragent.New(ua)
	osInfo := parsed.OSInfo()

	lang := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}

	return Fingerprint{
		UserAgent: ua,
		Screen:    strings.TrimSpace(r.Header.Get("X-Screen-Resolution")),
		Timezone:  strings.TrimSpace(r.Header.Get("X-Timezone")),
		Language:  strings.TrimSpace(lang),
		Platform:  osInfo.Name,
	}
}

// DeviceSummary is a human-readable description of the requesting device,
// used for logging and submission records.
type DeviceSummary struct {
	IP         string `json:"ip"`
	UserAgent  string `json:"user_agent"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	DeviceType string `json:"device_type"` // mobile, desktop, tablet, bot
}

// String renders the summary as "Browser on OS (type)" for logs and
// notification emails.
func (d DeviceSummary) String() string {
	s := d.Browser
	if s == "" {
		s = "Unknown"
	}
	if d.OS != "" {
		s += " on " + d.OS
	}
	return s + " (" + d.DeviceType + ")"
}

// ExtractDeviceSummary extracts device information from an HTTP request.
func ExtractDeviceSummary(r *http.Request) DeviceSummary {
	ua := r.UserAgent()
	ip := RealIP(r)

	parsed := useragent.New(ua)
	browser, browserVersion := parsed.Browser()
	if browserVersion != "" {
		browser = browser + " " + browserVersion
	}

	osInfo := parsed.OSInfo()
	os := osInfo.Name
	if osInfo.Version != "" {
		os = os + " " + osInfo.Version
	}

	deviceType := "desktop"
	if parsed.Mobile() {
		deviceType = "mobile"
	} else if parsed.Bot() {
		deviceType = "bot"
	} else if isTablet(ua) {
		deviceType = "tablet"
	}

	return DeviceSummary{
		IP:         ip,
		UserAgent:  ua,
		Browser:    browser,
		OS:         os,
		DeviceType: deviceType,
	}
}

// RealIP extracts the originating client IP from an HTTP request. It checks
// common proxy headers first, then falls back to RemoteAddr. The result is
// the identifier for the network-origin rate-limit scope.
func RealIP(r *http.Request) string {
	// X-Forwarded-For is a comma-separated list, first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if isValidIP(ip) {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		ip := strings.TrimSpace(xri)
		if isValidIP(ip) {
			return ip
		}
	}

	// CF-Connecting-IP (Cloudflare)
	if cfip := r.Header.Get("CF-Connecting-IP"); cfip != "" {
		ip := strings.TrimSpace(cfip)
		if isValidIP(ip) {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return host
}

// isValidIP checks if the string is a valid IP address.
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// isTablet checks if the user agent indicates a tablet device.
func isTablet(ua string) bool {
	ua = strings.ToLower(ua)
	tabletKeywords := []string{"ipad", "tablet", "playbook", "silk"}
	for _, keyword := range tabletKeywords {
		if strings.Contains(ua, keyword) {
			return true
		}
	}
	return false
}

// IsPrivateIP returns true if the IP is in a private/reserved range.
// GeoIP lookups are skipped for private addresses.
func IsPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	if parsed.IsLoopback() {
		return true
	}

	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7", // IPv6 unique local
	}

	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(parsed) {
			return true
		}
	}

	return false
}
