// Package params implements grouped-parameter transformation between
// related operations. A next-page or poll operation typically declares a
// grouped parameter that is a strict subset of the originating
// operation's group; Transform derives the target group value without the
// caller reconstructing it by hand.
package params

import "github.com/opcall-go/opcall/pkg/descriptor"

// Group is the value of a grouped parameter: field name to field value.
// A nil Group means the parameter is absent, which is distinct from an
// empty group.
type Group map[string]any

// Transform derives a target group value from a source group value by
// copying only the fields declared by the target spec. Fields declared
// by the target but missing from the source stay unset. A nil source
// yields a nil target, never an empty instance. The result is a fresh
// map, never aliased to the source.
func Transform(src Group, target *descriptor.GroupSpec) Group {
	if src == nil || target == nil {
		return nil
	}

	out := make(Group, len(target.Fields))
	for _, field := range target.Fields {
		if v, ok := src[field]; ok {
			out[field] = v
		}
	}
	return out
}
