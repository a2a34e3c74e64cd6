package invoke

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/opcall-go/opcall/pkg/params"
	"github.com/opcall-go/opcall/pkg/registry"
	"github.com/opcall-go/opcall/pkg/transport"
)

// Args carries the caller-supplied inputs of one invocation. All fields
// are optional; operations without parameters take the zero value.
type Args struct {
	// Path maps path template parameter names to their values.
	Path map[string]string

	// Query holds explicit query string parameters.
	Query url.Values

	// Header holds extra request headers.
	Header http.Header

	// Body is the raw request payload.
	Body json.RawMessage

	// Group is the grouped parameter object. Its fields are applied as
	// query parameters, and pageable operations project it onto the
	// next-page operation's declared group.
	Group params.Group
}

// Result is the outcome of a blocking invocation. Which fields are set
// depends on the execution strategy: plain calls and long-running
// operations carry Response, paged invocations carry Items.
type Result struct {
	// Response is the final response. For long-running operations this
	// is the terminal poll response, or the resource fetched afterwards.
	Response *transport.Response

	// Items holds the accumulated elements of a paged invocation, in
	// fetch order.
	Items []json.RawMessage

	// Pages is the number of pages fetched.
	Pages int

	// Polls is the number of status checks a long-running operation took.
	Polls int
}

// buildRequest assembles the transport request for an operation from
// its descriptor and the caller's arguments.
func (c *Client) buildRequest(op *registry.Operation, args Args) (*transport.Request, error) {
	path, err := expandPath(op.Descriptor.Path, args.Path)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", op.Descriptor.Name, err)
	}

	return &transport.Request{
		Verb:   op.Descriptor.Verb,
		URL:    c.baseURL + path,
		Query:  groupQuery(args.Query, args.Group),
		Header: args.Header,
		Body:   args.Body,
	}, nil
}

// expandPath substitutes {name} segments of a path template. Every
// template parameter must have a value; path values are escaped.
func expandPath(template string, values map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.Index(rest[open:], "}")
		if end < 0 {
			return "", fmt.Errorf("unterminated path parameter in %q", template)
		}
		name := rest[open+1 : open+end]
		value, ok := values[name]
		if !ok {
			return "", fmt.Errorf("missing path parameter %q", name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[open+end+1:]
	}
}

// groupQuery merges grouped parameter fields into the explicit query
// parameters. Explicit parameters win on conflict. Nil fields in the
// group are skipped; they represent absent optional parameters.
func groupQuery(query url.Values, group params.Group) url.Values {
	if len(group) == 0 {
		return query
	}
	merged := make(url.Values, len(query)+len(group))
	for name, value := range group {
		if value == nil {
			continue
		}
		merged.Set(name, fmt.Sprint(value))
	}
	for k, v := range query {
		merged[k] = append([]string(nil), v...)
	}
	return merged
}
