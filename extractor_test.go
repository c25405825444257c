package argus

import (
	"net/http/httptest"
	"strings"
	"testing"
)

const chromeOnWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for single",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.7",
		},
		{
			name:    "x-forwarded-for chain takes first",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 70.41.3.18, 150.172.238.178"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.7",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			remote:  "10.0.0.1:1234",
			want:    "198.51.100.4",
		},
		{
			name:    "cloudflare",
			headers: map[string]string{"CF-Connecting-IP": "192.0.2.9"},
			remote:  "10.0.0.1:1234",
			want:    "192.0.2.9",
		},
		{
			name:   "remote addr fallback",
			remote: "192.0.2.44:5678",
			want:   "192.0.2.44",
		},
		{
			name:    "invalid forwarded value falls through",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip"},
			remote:  "192.0.2.44:5678",
			want:    "192.0.2.44",
		},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remote
		for k, v := range tt.headers {
			r.Header.Set(k, v)
		}
		if got := RealIP(r); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestFingerprintFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/contact", nil)
	r.Header.Set("User-Agent", chromeOnWindows)
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	r.Header.Set("X-Screen-Resolution", "1920x1080")
	r.Header.Set("X-Timezone", "Europe/Berlin")

	fp := FingerprintFromRequest(r)

	if fp.UserAgent != chromeOnWindows {
		t.Errorf("Expected full user agent, got %q", fp.UserAgent)
	}
	if fp.Language != "en-US" {
		t.Errorf("Expected first language tag, got %q", fp.Language)
	}
	if fp.Screen != "1920x1080" {
		t.Errorf("Expected screen from header, got %q", fp.Screen)
	}
	if fp.Timezone != "Europe/Berlin" {
		t.Errorf("Expected timezone from header, got %q", fp.Timezone)
	}
	if fp.Platform != "Windows" {
		t.Errorf("Expected platform parsed from user agent, got %q", fp.Platform)
	}
}

func TestExtractDeviceSummary(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("User-Agent", chromeOnWindows)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.RemoteAddr = "10.0.0.1:1234"

	d := ExtractDeviceSummary(r)

	if d.IP != "203.0.113.7" {
		t.Errorf("Expected forwarded IP, got %q", d.IP)
	}
	if d.DeviceType != "desktop" {
		t.Errorf("Expected desktop device type, got %q", d.DeviceType)
	}
	if d.Browser == "" || d.OS == "" {
		t.Errorf("Expected browser and OS to be parsed, got %q / %q", d.Browser, d.OS)
	}
	if s := d.String(); !strings.Contains(s, " on ") || !strings.Contains(s, "(desktop)") {
		t.Errorf("Expected \"Browser on OS (type)\" rendering, got %q", s)
	}
}

func TestExtractDeviceSummaryMobile(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	r.RemoteAddr = "192.0.2.1:1234"

	if d := ExtractDeviceSummary(r); d.DeviceType != "mobile" {
		t.Errorf("Expected mobile device type, got %q", d.DeviceType)
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"127.0.0.1", "10.1.2.3", "172.16.0.1", "192.168.1.1", "fc00::1"}
	for _, ip := range private {
		if !IsPrivateIP(ip) {
			t.Errorf("Expected %s to be private", ip)
		}
	}

	public := []string{"8.8.8.8", "203.0.113.7", "2001:4860:4860::8888"}
	for _, ip := range public {
		if IsPrivateIP(ip) {
			t.Errorf("Expected %s to be public", ip)
		}
	}

	if IsPrivateIP("not-an-ip") {
		t.Error("Invalid input should not be classified private")
	}
}
