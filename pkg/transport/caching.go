package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/opcall-go/opcall/pkg/cache"
	"github.com/opcall-go/opcall/pkg/descriptor"
	"github.com/opcall-go/opcall/pkg/logging"
)

// CachingTransport serves GET responses from a redis-backed cache when
// the service declared them cacheable. Cache failures degrade to a
// direct call, never to a request failure.
type CachingTransport struct {
	inner  Transport
	cache  *cache.Manager
	logger zerolog.Logger
}

// NewCachingTransport wraps inner with response caching.
func NewCachingTransport(inner Transport, manager *cache.Manager) *CachingTransport {
	return &CachingTransport{
		inner:  inner,
		cache:  manager,
		logger: logging.NewLogger("cache-transport"),
	}
}

// Do implements Transport.
func (t *CachingTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Verb != descriptor.VerbGet {
		return t.inner.Do(ctx, req)
	}

	key := cache.Key{
		Verb:  string(req.Verb),
		URL:   req.URL,
		Query: req.Query,
	}

	entry, err := t.cache.Get(ctx, key)
	if err != nil && err != cache.ErrCacheMiss {
		t.logger.Warn().Err(err).Str("url", req.URL).Msg("Cache get error")
	}
	if entry != nil {
		t.logger.Debug().
			Str("url", req.URL).
			Dur("ttl", entry.TTL()).
			Msg("Serving response from cache")
		return entryToResponse(entry), nil
	}

	resp, err := t.inner.Do(ctx, req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusOK {
		if ttl := cache.FreshnessTTL(resp.Header); ttl > 0 {
			newEntry := &cache.Entry{
				Body:        resp.Body,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Expires:     time.Now().Add(ttl),
				CachedAt:    time.Now(),
			}
			if err := t.cache.Set(ctx, key, newEntry); err != nil {
				t.logger.Warn().Err(err).Str("url", req.URL).Msg("Failed to cache response")
			} else {
				t.logger.Debug().
					Str("url", req.URL).
					Dur("ttl", ttl).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// entryToResponse rebuilds a Response from a cache entry.
func entryToResponse(entry *cache.Entry) *Response {
	header := http.Header{}
	if entry.ContentType != "" {
		header.Set("Content-Type", entry.ContentType)
	}
	return &Response{
		StatusCode: entry.StatusCode,
		Header:     header,
		Body:       entry.Body,
	}
}

// hostOf extracts the host part of a request URL for throttle keying.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
