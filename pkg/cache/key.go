package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response: the verb, the request URL, and the
// query parameters.
type Key struct {
	// Verb is the HTTP verb (only GET responses are cached, but the
	// verb stays part of the key so the invariant is structural).
	Verb string

	// URL is the full request URL without query string.
	URL string

	// Query are the query parameters.
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: opcall:VERB:url:query1=val1:query2=val2
func (k Key) String() string {
	parts := []string{"opcall", k.Verb, strings.TrimRight(k.URL, "/")}

	// Query params sorted for determinism
	if len(k.Query) > 0 {
		queryKeys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
