// Package throttle implements a redis-shared cooldown for remote
// services. When a service answers 429 or 503 with a Retry-After header,
// the cooldown window is recorded under the service host so every client
// instance sharing the redis backend backs off together instead of
// piling on.
package throttle

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for cooldown tracking.
var (
	cooldownBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_cooldown_blocks_total",
		Help: "Total number of requests blocked by an active service cooldown",
	}, []string{"host"})

	cooldownsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_cooldowns_recorded_total",
		Help: "Total number of cooldown windows recorded from Retry-After responses",
	}, []string{"host"})
)

// DefaultCooldown applies when a throttling status arrives without a
// usable Retry-After header.
const DefaultCooldown = 5 * time.Second

// redisKey builds the cooldown key for a service host.
func redisKey(host string) string {
	return "opcall:cooldown:" + host
}

// Tracker records and consults per-host cooldown state in redis.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a cooldown tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// ShouldAllowRequest reports whether a request to host may be sent.
// Returns false with the remaining cooldown while a window is active.
func (t *Tracker) ShouldAllowRequest(ctx context.Context, host string) (bool, time.Duration, error) {
	remaining, err := t.redis.PTTL(ctx, redisKey(host)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("get cooldown state: %w", err)
	}

	// PTTL returns a negative duration when the key is missing or has
	// no expiry; either way no cooldown is active.
	if remaining <= 0 {
		return true, 0, nil
	}

	t.logger.Warn().
		Str("host", host).
		Dur("remaining", remaining).
		Msg("Service cooldown active - blocking request")

	cooldownBlocksTotal.WithLabelValues(host).Inc()
	return false, remaining, nil
}

// UpdateFromResponse inspects a response's status and Retry-After header
// and records a cooldown window when the service is shedding load.
// Non-throttling statuses are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, host string, statusCode int, headers http.Header) error {
	if statusCode != http.StatusTooManyRequests && statusCode != http.StatusServiceUnavailable {
		return nil
	}

	cooldown := DefaultCooldown
	if retryAfter := ParseRetryAfter(headers); retryAfter > 0 {
		cooldown = retryAfter
	}

	if err := t.redis.Set(ctx, redisKey(host), statusCode, cooldown).Err(); err != nil {
		return fmt.Errorf("store cooldown state: %w", err)
	}

	cooldownsRecordedTotal.WithLabelValues(host).Inc()
	t.logger.Warn().
		Str("host", host).
		Int("status", statusCode).
		Dur("cooldown", cooldown).
		Msg("Service cooldown recorded")

	return nil
}

// ParseRetryAfter reads the Retry-After header in its delta-seconds
// form. HTTP-date values and absent headers yield 0.
func ParseRetryAfter(headers http.Header) time.Duration {
	v := headers.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
