package paging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/opcall-go/opcall/pkg/logging"
	"github.com/opcall-go/opcall/pkg/params"
	"github.com/opcall-go/opcall/pkg/registry"
	"github.com/opcall-go/opcall/pkg/transport"
)

// Prometheus metrics for pagination.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_pages_fetched_total",
		Help: "Total pages fetched by operation",
	}, []string{"operation"})

	paginationPages = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opcall_pagination_pages",
		Help:    "Pages per completed pagination by operation",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	}, []string{"operation"})

	paginationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opcall_pagination_duration_seconds",
		Help:    "Duration of completed paginations by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"operation"})
)

var (
	// ErrPageLimit is returned when MaxPages pages were fetched and the
	// server still reports more. This is the cooperative guard against
	// unbounded continuation chains.
	ErrPageLimit = errors.New("page limit reached")

	// ErrNoMorePages is returned by NextPage once iteration is complete.
	ErrNoMorePages = errors.New("no more pages")
)

// Config holds pager configuration.
type Config struct {
	// MaxPages bounds one pagination. 0 means unbounded; the server's
	// absent continuation token is then the only terminator.
	MaxPages int

	// Convention locates items and continuation link in responses.
	Convention Convention
}

// DefaultConfig returns safe pager defaults.
func DefaultConfig() Config {
	return Config{
		MaxPages:   0,
		Convention: DefaultConvention(),
	}
}

// FirstCall issues the initiating call of a pagination.
type FirstCall func(ctx context.Context) (*transport.Response, error)

// NextCall issues a resolved next-page operation with the continuation
// token and the derived grouped parameter.
type NextCall func(ctx context.Context, op *registry.Operation, token string, group params.Group) (*transport.Response, error)

// Pager builds page iterators over the operations of one registry.
// Stateless and safe for concurrent use; all traversal state lives in
// the iterators it hands out.
type Pager struct {
	registry *registry.Registry
	config   Config
	logger   zerolog.Logger
}

// New creates a pager.
func New(reg *registry.Registry, cfg Config) *Pager {
	if cfg.Convention.ItemsField == "" || cfg.Convention.NextField == "" {
		cfg.Convention = DefaultConvention()
	}
	return &Pager{
		registry: reg,
		config:   cfg,
		logger:   logging.NewLogger("pager"),
	}
}

// Iterator starts a pagination for op. group is the initiating call's
// grouped parameter value (nil when the operation declares none); first
// issues the initiating call and next issues resolved next-page calls.
func (p *Pager) Iterator(op *registry.Operation, group params.Group, first FirstCall, next NextCall) *PageIterator {
	return &PageIterator{
		pager:       p,
		source:      op,
		sourceGroup: group,
		first:       first,
		next:        next,
	}
}

// PageIterator traverses one pagination. It is exclusively owned by the
// driving call and not safe for concurrent use.
type PageIterator struct {
	pager       *Pager
	source      *registry.Operation
	sourceGroup params.Group
	first       FirstCall
	next        NextCall

	token   string
	started bool
	done    bool
	pages   int
}

// HasMorePages reports whether NextPage can fetch another page.
func (it *PageIterator) HasMorePages() bool {
	return !it.done
}

// Pages returns the number of pages fetched so far.
func (it *PageIterator) Pages() int {
	return it.pages
}

// NextPage fetches the next page: the initiating call first, then the
// resolved next-page operation per continuation token. Errors carry the
// count of pages already processed.
func (it *PageIterator) NextPage(ctx context.Context) (*Page, error) {
	if it.done {
		return nil, ErrNoMorePages
	}
	if err := ctx.Err(); err != nil {
		return nil, it.annotate(err)
	}
	if it.pager.config.MaxPages > 0 && it.pages >= it.pager.config.MaxPages {
		return nil, it.annotate(ErrPageLimit)
	}

	var resp *transport.Response
	var err error

	if !it.started {
		it.started = true
		resp, err = it.first(ctx)
	} else {
		// The next-operation reference may cross operation groups; the
		// registry resolves it either way.
		nextOp, rerr := it.pager.registry.ResolveNext(it.source)
		if rerr != nil {
			return nil, it.annotate(rerr)
		}
		nextGroup := params.Transform(it.sourceGroup, nextOp.Descriptor.GroupedParameter)
		resp, err = it.next(ctx, nextOp, it.token, nextGroup)
	}
	if err != nil {
		return nil, it.annotate(err)
	}

	page, err := it.pager.config.Convention.DecodePage(resp)
	if err != nil {
		return nil, it.annotate(err)
	}

	it.pages++
	it.token = page.ContinuationToken
	if it.token == "" {
		it.done = true
	}

	pagesFetchedTotal.WithLabelValues(it.source.Descriptor.Name).Inc()
	it.pager.logger.Debug().
		Str("operation", it.source.Descriptor.Name).
		Int("pages", it.pages).
		Int("items", len(page.Items)).
		Bool("has_next", !it.done).
		Msg("Page fetched")

	return page, nil
}

// annotate attaches pagination progress to an error for diagnosability.
func (it *PageIterator) annotate(err error) error {
	return fmt.Errorf("pagination of %q after %d pages: %w", it.source.Descriptor.Name, it.pages, err)
}

// Collect fetches every page and returns the concatenation of items in
// fetch order. On any failure or cancellation the partial accumulation
// is discarded; callers that need partial progress must iterate pages
// themselves.
func (it *PageIterator) Collect(ctx context.Context) ([]json.RawMessage, error) {
	start := time.Now()
	var items []json.RawMessage

	for it.HasMorePages() {
		page, err := it.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		// An empty or absent items array with a token present just
		// continues the loop.
		items = append(items, page.Items...)

		if it.pages%50 == 0 {
			it.pager.logger.Debug().
				Str("operation", it.source.Descriptor.Name).
				Int("pages", it.pages).
				Int("items", len(items)).
				Msg("Pagination progress")
		}
	}

	paginationPages.WithLabelValues(it.source.Descriptor.Name).Observe(float64(it.pages))
	paginationDuration.WithLabelValues(it.source.Descriptor.Name).Observe(time.Since(start).Seconds())

	it.pager.logger.Info().
		Str("operation", it.source.Descriptor.Name).
		Int("pages", it.pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return items, nil
}
