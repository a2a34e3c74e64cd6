// Package transport defines the capability the execution layer calls
// remote services through, plus composable decorators for retry,
// response caching, and shared throttling. The core never constructs
// HTTP machinery itself; it only invokes a Transport and consumes the
// already-decoded Response.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/opcall-go/opcall/pkg/descriptor"
)

// Request is one remote call as seen by a Transport.
type Request struct {
	Verb   descriptor.Verb
	URL    string
	Query  url.Values
	Header http.Header
	Body   json.RawMessage
}

// Clone returns a deep enough copy for decorators to mutate headers
// without affecting the caller's request.
func (r *Request) Clone() *Request {
	out := &Request{
		Verb: r.Verb,
		URL:  r.URL,
		Body: r.Body,
	}
	if r.Query != nil {
		out.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			out.Query[k] = append([]string(nil), v...)
		}
	}
	if r.Header != nil {
		out.Header = r.Header.Clone()
	}
	return out
}

// Response is the decoded result of one remote call: status, headers,
// and the raw body. Continuation links and operation-status headers are
// read from here by the paging and polling layers.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// Transport executes a single remote call. Implementations must honor
// context cancellation. A non-2xx status yields both the decoded
// Response and an *Error so callers keep access to the failure payload.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to the Transport interface, mirroring
// http.HandlerFunc. Used heavily in tests.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f Func) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
