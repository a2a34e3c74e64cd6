// Package cache provides a redis-backed response cache for GET
// operations. Freshness comes from the standard Expires and
// Cache-Control response headers; entries expire out of redis on their
// own, so the cache never serves stale data.
package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Entry represents one cached remote response.
type Entry struct {
	// Body is the response body.
	Body []byte `json:"body"`

	// StatusCode is the HTTP status code of the cached response.
	StatusCode int `json:"status_code"`

	// ContentType is the response content type.
	ContentType string `json:"content_type"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the response was cached.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration. Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// FreshnessTTL derives a cache lifetime from response headers:
// Cache-Control max-age wins over Expires; no-store and no-cache (or
// neither header present) mean no caching.
func FreshnessTTL(h http.Header) time.Duration {
	cc := h.Get("Cache-Control")
	if cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "no-store" || directive == "no-cache" {
				return 0
			}
			if v, ok := strings.CutPrefix(directive, "max-age="); ok {
				secs, err := strconv.Atoi(v)
				if err != nil || secs <= 0 {
					return 0
				}
				return time.Duration(secs) * time.Second
			}
		}
	}

	if expiresStr := h.Get("Expires"); expiresStr != "" {
		expires, err := http.ParseTime(expiresStr)
		if err != nil {
			return 0
		}
		ttl := time.Until(expires)
		if ttl < 0 {
			return 0
		}
		return ttl
	}

	return 0
}
