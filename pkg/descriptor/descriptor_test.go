package descriptor

import "testing"

func TestFamilyForVerb(t *testing.T) {
	tests := []struct {
		verb Verb
		want PollFamily
	}{
		{VerbPut, PollResource},
		{VerbPatch, PollResource},
		{VerbPost, PollOperation},
		{VerbDelete, PollOperation},
		{VerbGet, PollNone},
		{Verb("HEAD"), PollNone},
	}

	for _, tt := range tests {
		t.Run(string(tt.verb), func(t *testing.T) {
			if got := FamilyForVerb(tt.verb); got != tt.want {
				t.Errorf("FamilyForVerb(%s) = %s, want %s", tt.verb, got, tt.want)
			}
		})
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name       string
		descriptor Descriptor
		wantErr    bool
	}{
		{
			name: "valid plain operation",
			descriptor: Descriptor{
				Name:     "get",
				Verb:     VerbGet,
				Path:     "/widgets/{id}",
				Response: KindScalar,
			},
			wantErr: false,
		},
		{
			name: "valid paged operation",
			descriptor: Descriptor{
				Name:     "list",
				Verb:     VerbGet,
				Path:     "/widgets",
				Response: KindSequence,
				Extensions: Extensions{
					Pageable:      true,
					NextOperation: &NextOperationRef{Operation: "listNext"},
				},
			},
			wantErr: false,
		},
		{
			name: "missing name",
			descriptor: Descriptor{
				Verb: VerbGet,
			},
			wantErr: true,
		},
		{
			name: "unsupported verb",
			descriptor: Descriptor{
				Name: "probe",
				Verb: Verb("OPTIONS"),
			},
			wantErr: true,
		},
		{
			name: "next-operation ref without pageable flag",
			descriptor: Descriptor{
				Name: "list",
				Verb: VerbGet,
				Extensions: Extensions{
					NextOperation: &NextOperationRef{Operation: "listNext"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.descriptor.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGroupSpecHasField(t *testing.T) {
	spec := &GroupSpec{
		Parameter: "listOptions",
		Fields:    []string{"clientRequestID", "filter"},
	}

	if !spec.HasField("filter") {
		t.Error("HasField(filter) = false, want true")
	}
	if spec.HasField("top") {
		t.Error("HasField(top) = true, want false")
	}

	var nilSpec *GroupSpec
	if nilSpec.HasField("filter") {
		t.Error("nil spec HasField = true, want false")
	}
}
