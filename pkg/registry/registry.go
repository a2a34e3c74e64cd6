// Package registry resolves operation names to callable operation
// descriptors across operation groups. The name index is built once at
// client construction and read-only afterwards, so concurrent lookups
// need no synchronization.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opcall-go/opcall/pkg/descriptor"
)

// ErrOperationNotFound is returned when no descriptor matches the
// requested (group, operation) pair. This is a caller or configuration
// error and is never retried.
var ErrOperationNotFound = errors.New("operation not found")

// Operation is a resolved, registered operation: the descriptor plus
// everything the execution layer derives from it exactly once at
// registration time.
type Operation struct {
	Descriptor *descriptor.Descriptor

	// GroupName is the normalized name of the owning group.
	GroupName string

	// PollFamily is the poll strategy implied by the verb. PollNone for
	// operations that are not long-running-capable.
	PollFamily descriptor.PollFamily

	// NextPageTarget marks operations reached only through another
	// operation's next-operation reference. The invoker never wraps
	// these in a pager, which is what stops recursive pagination.
	NextPageTarget bool
}

type opKey struct {
	group string
	name  string
}

// Registry is the flat (group, name) index over a descriptor set.
type Registry struct {
	ops          map[opKey]*Operation
	defaultGroup string
}

// NormalizeGroupName applies the group naming conventions once, at
// registration: lowercase, with the generated "Operations"/"Client"
// suffixes stripped. Lookups are exact-match against the normalized name.
func NormalizeGroupName(name string) string {
	n := strings.ToLower(name)
	n = strings.TrimSuffix(n, "operations")
	n = strings.TrimSuffix(n, "client")
	return n
}

// New builds a registry from a descriptor set. The first group in the
// set becomes the default group for lookups with an empty group name.
// Duplicate operation names within a group, duplicate group names, and
// dangling next-operation references are construction errors.
func New(set *descriptor.Set) (*Registry, error) {
	if set == nil || len(set.Groups) == 0 {
		return nil, fmt.Errorf("descriptor set is empty")
	}

	r := &Registry{
		ops:          make(map[opKey]*Operation),
		defaultGroup: NormalizeGroupName(set.Groups[0].Name),
	}

	seenGroups := make(map[string]bool, len(set.Groups))
	for gi := range set.Groups {
		group := &set.Groups[gi]
		groupName := NormalizeGroupName(group.Name)
		if seenGroups[groupName] {
			return nil, fmt.Errorf("duplicate group name %q", groupName)
		}
		seenGroups[groupName] = true

		for oi := range group.Operations {
			d := &group.Operations[oi]
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("group %q: %w", groupName, err)
			}

			key := opKey{group: groupName, name: d.Name}
			if _, exists := r.ops[key]; exists {
				return nil, fmt.Errorf("duplicate operation %q in group %q", d.Name, groupName)
			}

			family := descriptor.PollNone
			if d.Extensions.LongRunning {
				family = descriptor.FamilyForVerb(d.Verb)
			}

			r.ops[key] = &Operation{
				Descriptor: d,
				GroupName:  groupName,
				PollFamily: family,
			}
		}
	}

	// Mark next-page targets and verify references resolve.
	for key, op := range r.ops {
		ref := op.Descriptor.Extensions.NextOperation
		if ref == nil {
			continue
		}
		target, err := r.Resolve(ref.Operation, refGroup(ref, key.group))
		if err != nil {
			return nil, fmt.Errorf("operation %q in group %q: next operation %q: %w",
				key.name, key.group, ref.Operation, err)
		}
		target.NextPageTarget = true
	}

	return r, nil
}

// refGroup resolves the group half of a next-operation reference: an
// empty group means "same group as the referencing operation".
func refGroup(ref *descriptor.NextOperationRef, currentGroup string) string {
	if ref.Group == "" {
		return currentGroup
	}
	return ref.Group
}

// Resolve looks up an operation by name. An empty group resolves within
// the default group; otherwise the named group is searched. The group
// name is normalized the same way registration normalized it, so both
// forms resolve.
func (r *Registry) Resolve(name, group string) (*Operation, error) {
	if group == "" {
		group = r.defaultGroup
	} else {
		group = NormalizeGroupName(group)
	}

	op, ok := r.ops[opKey{group: group, name: name}]
	if !ok {
		return nil, fmt.Errorf("%w: %q in group %q", ErrOperationNotFound, name, group)
	}
	return op, nil
}

// ResolveNext resolves the next-page operation referenced by op,
// crossing groups when the reference names one.
func (r *Registry) ResolveNext(op *Operation) (*Operation, error) {
	ref := op.Descriptor.Extensions.NextOperation
	if ref == nil {
		return nil, fmt.Errorf("%w: operation %q has no next-operation reference",
			ErrOperationNotFound, op.Descriptor.Name)
	}
	return r.Resolve(ref.Operation, refGroup(ref, op.GroupName))
}

// DefaultGroup returns the normalized name of the default group.
func (r *Registry) DefaultGroup() string {
	return r.defaultGroup
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	return len(r.ops)
}
