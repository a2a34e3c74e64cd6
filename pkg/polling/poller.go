package polling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/opcall-go/opcall/pkg/descriptor"
	"github.com/opcall-go/opcall/pkg/logging"
	"github.com/opcall-go/opcall/pkg/registry"
	"github.com/opcall-go/opcall/pkg/throttle"
	"github.com/opcall-go/opcall/pkg/transport"
)

// Prometheus metrics for LRO polling.
var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_polls_total",
		Help: "Total status checks issued by operation",
	}, []string{"operation"})

	pollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opcall_poll_duration_seconds",
		Help:    "Duration of completed polls by operation",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"operation"})

	pollFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_poll_failures_total",
		Help: "Long-running operations that reached a failure terminal state",
	}, []string{"operation", "status"})
)

var (
	// ErrInvalidOperationVerb marks a descriptor flagged long-running
	// whose verb supports no poll family. Misconfiguration; fails before
	// any network call.
	ErrInvalidOperationVerb = errors.New("operation verb does not support polling")

	// ErrPollInterrupted is returned when cancellation is requested
	// while a poll is in flight or waiting.
	ErrPollInterrupted = errors.New("poll interrupted")

	// ErrNoStatusURL marks an operation-polling initiating response
	// that advertises no Operation-Location or Location header.
	ErrNoStatusURL = errors.New("initiating response carries no operation-status URL")
)

// OperationFailedError reports a long-running operation that reached
// Failed or Canceled. It carries the last status payload for diagnostics.
type OperationFailedError struct {
	Operation string
	Status    Status
	Polls     int
	LastBody  json.RawMessage
}

// Error implements the error interface.
func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("operation %q reached terminal state %s after %d polls",
		e.Operation, e.Status, e.Polls)
}

// Config holds poller configuration.
type Config struct {
	// Interval is the wait between status checks when the server sends
	// no Retry-After hint.
	Interval time.Duration
}

// DefaultConfig returns safe poller defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
	}
}

// Result is the outcome of a completed poll.
type Result struct {
	// Response is the final response: the resource body for resource
	// polling, the terminal status payload (or fetched result) for
	// operation polling.
	Response *transport.Response

	// Polls is the number of status checks issued.
	Polls int

	// Elapsed is the wall-clock duration of the poll.
	Elapsed time.Duration
}

// Poller drives long-running operations to a terminal state. Stateless
// and safe for concurrent use; per-operation poll state is local to each
// PollUntilDone call.
type Poller struct {
	transport transport.Transport
	config    Config
	logger    zerolog.Logger
}

// New creates a poller.
func New(t transport.Transport, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Poller{
		transport: t,
		config:    cfg,
		logger:    logging.NewLogger("poller"),
	}
}

// PollUntilDone polls op until terminal. initiating is the response of
// the initiating call and resourceURL its request URL (the poll target
// for resource-family operations).
func (p *Poller) PollUntilDone(ctx context.Context, op *registry.Operation, initiating *transport.Response, resourceURL string) (*Result, error) {
	name := op.Descriptor.Name

	family := op.PollFamily
	if family == descriptor.PollNone {
		return nil, fmt.Errorf("%w: operation %q has verb %s",
			ErrInvalidOperationVerb, name, op.Descriptor.Verb)
	}

	start := time.Now()
	state := &pollState{
		status:       ParseStatus(initiating.Body),
		lastResponse: initiating,
	}

	p.logger.Debug().
		Str("operation", name).
		Str("family", family.String()).
		Str("initial_status", string(state.status)).
		Msg("Polling started")

	// Resolved on the first status check only. An initiating response
	// that is already terminal never needs a status URL, so a missing
	// one must not fail the synchronous completion case.
	var statusURL, finalURL string

	for !p.effectiveStatus(state).Terminal() {
		if statusURL == "" {
			var err error
			statusURL, finalURL, err = p.pollTargets(family, initiating, resourceURL)
			if err != nil {
				return nil, fmt.Errorf("operation %q: %w", name, err)
			}
		}

		wait := p.nextWait(state.lastResponse)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %q after %d polls: %w: %v",
				name, state.polls, ErrPollInterrupted, ctx.Err())
		case <-time.After(wait):
		}

		resp, err := p.transport.Do(ctx, &transport.Request{
			Verb: descriptor.VerbGet,
			URL:  statusURL,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("operation %q after %d polls: %w: %v",
					name, state.polls, ErrPollInterrupted, ctx.Err())
			}
			return nil, fmt.Errorf("operation %q status check %d: %w", name, state.polls+1, err)
		}

		state.polls++
		state.lastResponse = resp
		state.status = ParseStatus(resp.Body)
		pollsTotal.WithLabelValues(name).Inc()

		p.logger.Debug().
			Str("operation", name).
			Int("polls", state.polls).
			Str("status", string(state.status)).
			Int("http_status", resp.StatusCode).
			Msg("Status check")
	}

	elapsed := time.Since(start)
	pollDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	status := p.effectiveStatus(state)
	if status == StatusFailed || status == StatusCanceled {
		pollFailuresTotal.WithLabelValues(name, string(status)).Inc()
		p.logger.Warn().
			Str("operation", name).
			Str("status", string(status)).
			Int("polls", state.polls).
			Dur("elapsed", elapsed).
			Msg("Operation reached failure terminal state")
		return nil, &OperationFailedError{
			Operation: name,
			Status:    status,
			Polls:     state.polls,
			LastBody:  state.lastResponse.Body,
		}
	}

	final := state.lastResponse
	if family == descriptor.PollOperation && finalURL != "" && finalURL != statusURL {
		// The status payload does not embed the result; one more GET at
		// the advertised resource location fetches it.
		fetched, err := p.transport.Do(ctx, &transport.Request{
			Verb: descriptor.VerbGet,
			URL:  finalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("operation %q final result fetch: %w", name, err)
		}
		final = fetched
	}

	p.logger.Info().
		Str("operation", name).
		Int("polls", state.polls).
		Dur("elapsed", elapsed).
		Msg("Operation completed")

	return &Result{
		Response: final,
		Polls:    state.polls,
		Elapsed:  elapsed,
	}, nil
}

// pollState is the mutable state of one in-flight poll, owned by the
// driving PollUntilDone call.
type pollState struct {
	status       Status
	polls        int
	lastResponse *transport.Response
}

// pollTargets selects the status-check URL, and for operation polling
// the optional final-resource URL, per family.
func (p *Poller) pollTargets(family descriptor.PollFamily, initiating *transport.Response, resourceURL string) (statusURL, finalURL string, err error) {
	switch family {
	case descriptor.PollResource:
		return resourceURL, "", nil
	case descriptor.PollOperation:
		statusURL = initiating.Header.Get("Operation-Location")
		finalURL = initiating.Header.Get("Location")
		if statusURL == "" {
			statusURL = finalURL
			finalURL = ""
		}
		if statusURL == "" {
			return "", "", ErrNoStatusURL
		}
		return statusURL, finalURL, nil
	default:
		return "", "", ErrInvalidOperationVerb
	}
}

// effectiveStatus resolves an absent status: a body with no state on a
// 2xx means the operation is done (a final resource carries no
// provisioning state anymore), except while the service still answers
// 202 Accepted.
func (p *Poller) effectiveStatus(state *pollState) Status {
	if state.status != "" {
		return state.status
	}
	if state.lastResponse.StatusCode == 202 {
		return StatusInProgress
	}
	return StatusSucceeded
}

// nextWait honors a server-suggested Retry-After for the next wait only,
// falling back to the configured interval.
func (p *Poller) nextWait(last *transport.Response) time.Duration {
	if last != nil && last.Header != nil {
		if retryAfter := throttle.ParseRetryAfter(last.Header); retryAfter > 0 {
			return retryAfter
		}
	}
	return p.config.Interval
}
