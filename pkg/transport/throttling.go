package transport

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/opcall-go/opcall/pkg/logging"
	"github.com/opcall-go/opcall/pkg/throttle"
)

// ThrottleTransport consults a shared cooldown tracker before sending
// and records cooldowns the service announces via Retry-After. With the
// tracker backed by redis, every client instance of the same service
// observes the same cooldown window.
type ThrottleTransport struct {
	inner   Transport
	tracker *throttle.Tracker
	logger  zerolog.Logger
}

// NewThrottleTransport wraps inner with shared cooldown gating.
func NewThrottleTransport(inner Transport, tracker *throttle.Tracker) *ThrottleTransport {
	return &ThrottleTransport{
		inner:   inner,
		tracker: tracker,
		logger:  logging.NewLogger("throttle-transport"),
	}
}

// Do implements Transport.
func (t *ThrottleTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	host := hostOf(req.URL)

	allowed, remaining, err := t.tracker.ShouldAllowRequest(ctx, host)
	if err != nil {
		// Tracker state being unreachable must not take requests down
		// with it; log and proceed.
		t.logger.Warn().Err(err).Str("host", host).Msg("Cooldown check failed")
	} else if !allowed {
		return nil, fmt.Errorf("%w: %s for %s", ErrThrottled, host, remaining)
	}

	resp, err := t.inner.Do(ctx, req)

	if resp != nil {
		if uerr := t.tracker.UpdateFromResponse(ctx, host, resp.StatusCode, resp.Header); uerr != nil {
			t.logger.Warn().Err(uerr).Str("host", host).Msg("Failed to record cooldown")
		}
	}

	return resp, err
}
