package params

import (
	"reflect"
	"testing"

	"github.com/opcall-go/opcall/pkg/descriptor"
)

func TestTransform(t *testing.T) {
	spec := &descriptor.GroupSpec{
		Parameter: "listNextOptions",
		Fields:    []string{"clientRequestID", "filter"},
	}

	tests := []struct {
		name string
		src  Group
		spec *descriptor.GroupSpec
		want Group
	}{
		{
			name: "absent source yields absent target",
			src:  nil,
			spec: spec,
			want: nil,
		},
		{
			name: "nil spec yields absent target",
			src:  Group{"filter": "active"},
			spec: nil,
			want: nil,
		},
		{
			name: "copies only declared fields",
			src: Group{
				"clientRequestID": "req-42",
				"filter":          "active",
				"top":             100,
			},
			spec: spec,
			want: Group{
				"clientRequestID": "req-42",
				"filter":          "active",
			},
		},
		{
			name: "fields missing from the source stay unset",
			src:  Group{"filter": "active"},
			spec: spec,
			want: Group{"filter": "active"},
		},
		{
			name: "empty source yields empty target, not nil",
			src:  Group{},
			spec: spec,
			want: Group{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(tt.src, tt.spec)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Transform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformReturnsFreshInstance(t *testing.T) {
	spec := &descriptor.GroupSpec{
		Parameter: "options",
		Fields:    []string{"filter"},
	}
	src := Group{"filter": "active"}

	got := Transform(src, spec)
	got["filter"] = "mutated"

	if src["filter"] != "active" {
		t.Error("Transform aliased the source group")
	}
}
