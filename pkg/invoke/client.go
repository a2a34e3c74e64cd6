// Package invoke is the orchestration root of the execution layer.
// Given an operation name it resolves the descriptor, builds the
// request, and dispatches to the right execution strategy: long-running
// operations poll to completion, pageable operations traverse their
// continuation chain, everything else is a single call. Both a blocking
// and a handle-returning calling convention are provided.
package invoke

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/opcall-go/opcall/pkg/descriptor"
	"github.com/opcall-go/opcall/pkg/logging"
	"github.com/opcall-go/opcall/pkg/paging"
	"github.com/opcall-go/opcall/pkg/params"
	"github.com/opcall-go/opcall/pkg/polling"
	"github.com/opcall-go/opcall/pkg/registry"
	"github.com/opcall-go/opcall/pkg/transport"
)

// Prometheus metrics for invocations.
var (
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_invocations_total",
		Help: "Total invocations by operation and execution strategy",
	}, []string{"operation", "strategy"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the service root every descriptor path is relative to.
	BaseURL string

	// Transport executes the remote calls. Decorate it with retry,
	// caching, or throttling before handing it in.
	Transport transport.Transport

	// Descriptors is the pre-parsed operation descriptor set.
	Descriptors *descriptor.Set

	// Paging configures pagination behavior.
	Paging paging.Config

	// Polling configures LRO polling behavior.
	Polling polling.Config
}

// DefaultConfig returns a configuration with safe defaults for the
// paging and polling layers.
func DefaultConfig(baseURL string, t transport.Transport, set *descriptor.Set) Config {
	return Config{
		BaseURL:     baseURL,
		Transport:   t,
		Descriptors: set,
		Paging:      paging.DefaultConfig(),
		Polling:     polling.DefaultConfig(),
	}
}

// Client executes the operations of one descriptor set. Safe for
// concurrent use: the registry is read-only after construction and all
// per-invocation state is owned by the individual call.
type Client struct {
	registry  *registry.Registry
	transport transport.Transport
	pager     *paging.Pager
	poller    *polling.Poller
	baseURL   string
	logger    zerolog.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Descriptors == nil {
		return nil, fmt.Errorf("descriptor set is required")
	}

	reg, err := registry.New(cfg.Descriptors)
	if err != nil {
		return nil, fmt.Errorf("build operation registry: %w", err)
	}

	return &Client{
		registry:  reg,
		transport: cfg.Transport,
		pager:     paging.New(reg, cfg.Paging),
		poller:    polling.New(cfg.Transport, cfg.Polling),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		logger:    logging.NewLogger("invoker"),
	}, nil
}

// Registry exposes the operation registry for callers that resolve
// operations themselves.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Invoke executes the named operation and blocks until the final result:
// the poll outcome for long-running operations, the fully accumulated
// items for pageable ones, the plain response otherwise. An empty group
// resolves within the default operation group.
func (c *Client) Invoke(ctx context.Context, operation, group string, args Args) (*Result, error) {
	op, err := c.registry.Resolve(operation, group)
	if err != nil {
		return nil, err
	}

	// Long-running wins when a descriptor carries both flags; pageable
	// applies only to entry points, never to next-page targets.
	switch {
	case op.Descriptor.Extensions.LongRunning:
		invocationsTotal.WithLabelValues(operation, "long_running").Inc()
		return c.invokeLongRunning(ctx, op, args)
	case op.Descriptor.Extensions.Pageable && !op.NextPageTarget:
		invocationsTotal.WithLabelValues(operation, "paged").Inc()
		return c.invokePaged(ctx, op, args)
	default:
		invocationsTotal.WithLabelValues(operation, "plain").Inc()
		return c.invokePlain(ctx, op, args)
	}
}

// Pages starts the streaming form of a pageable operation. Unlike
// Invoke, partial progress stays with the caller: every fetched page is
// delivered before a failure or cancellation surfaces.
func (c *Client) Pages(operation, group string, args Args) (*paging.PageIterator, error) {
	op, err := c.registry.Resolve(operation, group)
	if err != nil {
		return nil, err
	}
	if !op.Descriptor.Extensions.Pageable {
		return nil, fmt.Errorf("operation %q is not pageable", operation)
	}
	return c.pageIterator(op, args), nil
}

func (c *Client) invokePlain(ctx context.Context, op *registry.Operation, args Args) (*Result, error) {
	req, err := c.buildRequest(op, args)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("operation", op.Descriptor.Name).
		Str("group", op.GroupName).
		Int("status", resp.StatusCode).
		Msg("Operation complete")

	return &Result{Response: resp}, nil
}

func (c *Client) invokePaged(ctx context.Context, op *registry.Operation, args Args) (*Result, error) {
	it := c.pageIterator(op, args)
	items, err := it.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Items: items, Pages: it.Pages()}, nil
}

func (c *Client) invokeLongRunning(ctx context.Context, op *registry.Operation, args Args) (*Result, error) {
	// A bad verb must fail before the initiating call goes out.
	if op.PollFamily == descriptor.PollNone {
		return nil, fmt.Errorf("%w: operation %q has verb %s",
			polling.ErrInvalidOperationVerb, op.Descriptor.Name, op.Descriptor.Verb)
	}

	req, err := c.buildRequest(op, args)
	if err != nil {
		return nil, err
	}

	initiating, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	pollResult, err := c.poller.PollUntilDone(ctx, op, initiating, req.URL)
	if err != nil {
		return nil, err
	}

	return &Result{Response: pollResult.Response, Polls: pollResult.Polls}, nil
}

// pageIterator wires the pager's call hooks to this client's request
// building and transport.
func (c *Client) pageIterator(op *registry.Operation, args Args) *paging.PageIterator {
	first := func(ctx context.Context) (*transport.Response, error) {
		req, err := c.buildRequest(op, args)
		if err != nil {
			return nil, err
		}
		return c.transport.Do(ctx, req)
	}

	next := func(ctx context.Context, nextOp *registry.Operation, token string, group params.Group) (*transport.Response, error) {
		req := &transport.Request{
			Verb:  nextOp.Descriptor.Verb,
			URL:   c.resolveLink(token),
			Query: groupQuery(nil, group),
		}
		return c.transport.Do(ctx, req)
	}

	return c.pager.Iterator(op, args.Group, first, next)
}

// resolveLink turns a continuation link into an absolute URL. Servers
// return either absolute links or paths relative to the service root.
func (c *Client) resolveLink(token string) string {
	if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
		return token
	}
	return c.baseURL + "/" + strings.TrimLeft(token, "/")
}
