// Package descriptor defines the static metadata for remote service
// operations: HTTP verb, parameter grouping, response shape, and the
// behavioral extension flags (pageable, long-running, next-operation
// reference) that drive execution strategy selection.
//
// Descriptors are data, not behavior. They are produced once by an
// external schema-parsing collaborator, handed to a registry at client
// construction, and immutable thereafter.
package descriptor

import "fmt"

// Verb is the HTTP verb of a remote operation.
type Verb string

const (
	VerbGet    Verb = "GET"
	VerbPut    Verb = "PUT"
	VerbPatch  Verb = "PATCH"
	VerbPost   Verb = "POST"
	VerbDelete Verb = "DELETE"
)

// Valid reports whether v is one of the supported verbs.
func (v Verb) Valid() bool {
	switch v {
	case VerbGet, VerbPut, VerbPatch, VerbPost, VerbDelete:
		return true
	}
	return false
}

// ResponseKind describes the shape of an operation's response body.
type ResponseKind string

const (
	// KindNone means the operation returns no body (e.g. DELETE).
	KindNone ResponseKind = "none"

	// KindScalar means the operation returns a single value or object.
	KindScalar ResponseKind = "scalar"

	// KindSequence means the operation returns an ordered sequence of items.
	KindSequence ResponseKind = "sequence"
)

// PollFamily selects how a long-running operation is polled to completion.
// The family is derived from the initiating verb exactly once, at
// registration time, and never re-derived per poll iteration.
type PollFamily int

const (
	// PollNone means the operation is not pollable.
	PollNone PollFamily = iota

	// PollResource polls the original resource URL until the resource
	// reaches a terminal provisioning state (PUT, PATCH).
	PollResource

	// PollOperation polls a separate operation-status URL advertised by
	// the initiating response (POST, DELETE).
	PollOperation
)

// String returns the family name for logging.
func (f PollFamily) String() string {
	switch f {
	case PollResource:
		return "resource"
	case PollOperation:
		return "operation"
	default:
		return "none"
	}
}

// FamilyForVerb returns the poll family implied by the initiating verb.
// Verbs outside the four LRO-capable ones map to PollNone.
func FamilyForVerb(v Verb) PollFamily {
	switch v {
	case VerbPut, VerbPatch:
		return PollResource
	case VerbPost, VerbDelete:
		return PollOperation
	default:
		return PollNone
	}
}

// NextOperationRef identifies the operation that fetches the next page of
// a paged result. Group may name a different operation group than the
// one owning the referencing descriptor; an empty Group means "same group".
type NextOperationRef struct {
	Operation string
	Group     string
}

// GroupSpec describes which logical input parameter of an operation is a
// grouped parameter, and which fields that group carries. Next-page and
// poll operations reuse a subset of the originating group's fields.
type GroupSpec struct {
	// Parameter is the logical name of the grouped input parameter.
	Parameter string

	// Fields are the field names the group carries.
	Fields []string
}

// HasField reports whether the spec declares the named field.
func (s *GroupSpec) HasField(name string) bool {
	if s == nil {
		return false
	}
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Extensions holds the behavioral flags attached to an operation by the
// schema. Keys in the source mapping are unique; unknown flags are
// dropped by the external parser before descriptors reach this layer.
type Extensions struct {
	// Pageable marks an operation whose results span multiple pages
	// linked by continuation tokens.
	Pageable bool

	// LongRunning marks an operation that returns an in-progress marker
	// and must be polled until terminal.
	LongRunning bool

	// NextOperation references the operation used to fetch subsequent
	// pages. Present only when Pageable is set.
	NextOperation *NextOperationRef
}

// Descriptor is the immutable static metadata for one remote operation.
// Name is unique within the owning group.
type Descriptor struct {
	Name       string
	Verb       Verb
	Path       string // URL path template, e.g. "/widgets/{id}"
	Response   ResponseKind
	Extensions Extensions

	// GroupedParameter describes this operation's grouped input
	// parameter, if it declares one.
	GroupedParameter *GroupSpec
}

// Validate checks structural consistency of a single descriptor.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if !d.Verb.Valid() {
		return fmt.Errorf("operation %q: unsupported verb %q", d.Name, d.Verb)
	}
	if d.Extensions.NextOperation != nil && !d.Extensions.Pageable {
		return fmt.Errorf("operation %q: next-operation reference on a non-pageable operation", d.Name)
	}
	return nil
}

// Group is a named collection of operation descriptors. Multiple groups
// coexist within one Set and may cross-reference each other's operations
// through NextOperationRef.
type Group struct {
	Name       string
	Operations []Descriptor
}

// Set is the full collection of operation groups handed to a client at
// construction. It is read-only input; the registry indexes it once.
type Set struct {
	Groups []Group
}
