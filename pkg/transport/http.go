package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/opcall-go/opcall/pkg/logging"
)

// Prometheus metrics for transport calls.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_requests_total",
		Help: "Total remote calls by verb and status",
	}, []string{"verb", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opcall_request_duration_seconds",
		Help:    "Remote call duration in seconds by verb",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"verb"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opcall_errors_total",
		Help: "Total transport errors by class",
	}, []string{"class"})
)

// HTTPTransport is the default Transport backed by net/http. It is
// deliberately thin: body encoding beyond raw JSON pass-through,
// authentication, and proxying are the embedding application's concern.
type HTTPTransport struct {
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPTransport creates an HTTP-backed transport. A nil client gets a
// default with a 30 second timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{
		client: client,
		logger: logging.NewLogger("transport"),
	}
}

// Do executes the request and decodes the response envelope. Statuses
// of 400 and above return both the Response and a classified *Error.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(string(req.Verb)).Observe(time.Since(startTime).Seconds())
	}()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Verb), req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if req.Query != nil {
		q := httpReq.URL.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	t.logger.Debug().
		Str("verb", string(req.Verb)).
		Str("url", req.URL).
		Msg("Executing remote call")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(string(req.Verb), "network_error").Inc()
		t.logger.Error().Err(err).Str("url", req.URL).Msg("Remote call failed")
		return nil, &Error{
			Class:   ErrorClassNetwork,
			Message: "remote call failed",
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &Error{
			Class:   ErrorClassNetwork,
			Message: "read response body",
			Err:     err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}

	requestsTotal.WithLabelValues(string(req.Verb), fmt.Sprintf("%d", httpResp.StatusCode)).Inc()

	if httpResp.StatusCode >= 400 {
		class := Classify(httpResp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		t.logger.Warn().
			Str("url", req.URL).
			Int("status", httpResp.StatusCode).
			Str("error_class", string(class)).
			Msg("Remote call returned error status")
		return resp, &Error{
			StatusCode: httpResp.StatusCode,
			Class:      class,
			Message:    httpResp.Status,
		}
	}

	return resp, nil
}
