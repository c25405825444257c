package argus

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location is the geographic origin of a request, used to annotate
// submission records. Lookups are best-effort enrichment only; no decision
// is ever made on a location.
type Location struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// GeoIPReader provides IP geolocation using a MaxMind GeoLite2 database.
type GeoIPReader struct {
	db   *geoip2.Reader
	path string
}

// NewGeoIPReader opens a MaxMind GeoLite2-City database.
func NewGeoIPReader(dbPath string) (*GeoIPReader, error) {
	if dbPath == "" {
		return nil, ErrGeoIPDatabaseNotConfigured
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("argus: failed to open GeoIP database: %w", err)
	}

	return &GeoIPReader{
		db:   db,
		path: dbPath,
	}, nil
}

// Lookup returns location information for an IP address. Private and
// loopback addresses resolve to an IP-only location.
func (r *GeoIPReader) Lookup(ip string) (*Location, error) {
	if r == nil || r.db == nil {
		return nil, ErrGeoIPDatabaseNotConfigured
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIP, ip)
	}

	if IsPrivateIP(ip) {
		return &Location{IP: ip}, nil
	}

	record, err := r.db.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeoIPLookupFailed, err)
	}

	// Prefer English names, fall back to whatever the database has.
	city := ""
	if name, ok := record.City.Names["en"]; ok {
		city = name
	} else {
		for _, name := range record.City.Names {
			city = name
			break
		}
	}

	country := ""
	if name, ok := record.Country.Names["en"]; ok {
		country = name
	} else {
		for _, name := range record.Country.Names {
			country = name
			break
		}
	}

	return &Location{
		IP:      ip,
		City:    city,
		Country: country,
	}, nil
}

// LookupWithFallback attempts IP geolocation, returning a partial result
// with just the IP if lookup fails. A nil reader is valid and always falls
// back, so callers can treat GeoIP as strictly optional.
func (r *GeoIPReader) LookupWithFallback(ip string) Location {
	loc, err := r.Lookup(ip)
	if err != nil || loc == nil {
		return Location{IP: ip}
	}
	return *loc
}

// Close closes the GeoIP database.
func (r *GeoIPReader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
