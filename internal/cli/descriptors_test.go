package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opcall-go/opcall/pkg/descriptor"
)

const descriptorYAML = `
groups:
  - name: widgets
    operations:
      - name: list
        verb: GET
        path: /widgets
        response: sequence
        pageable: true
        next-operation:
          operation: listNext
        grouped-parameter:
          parameter: options
          fields: [filter, top]
      - name: listNext
        verb: GET
        path: /widgets/next
        response: sequence
        pageable: true
      - name: create
        verb: PUT
        path: /widgets/{id}
        long-running: true
      - name: delete
        verb: DELETE
        path: /widgets/{id}
        response: none
`

func writeDescriptorFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descriptors.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing descriptor file: %v", err)
	}
	return path
}

func TestLoadDescriptorSet(t *testing.T) {
	set, err := LoadDescriptorSet(writeDescriptorFile(t, descriptorYAML))
	if err != nil {
		t.Fatalf("LoadDescriptorSet() error = %v", err)
	}

	if len(set.Groups) != 1 || set.Groups[0].Name != "widgets" {
		t.Fatalf("groups = %+v, want single widgets group", set.Groups)
	}
	ops := set.Groups[0].Operations
	if len(ops) != 4 {
		t.Fatalf("len(operations) = %d, want 4", len(ops))
	}

	list := ops[0]
	if list.Verb != descriptor.VerbGet || list.Response != descriptor.KindSequence {
		t.Errorf("list = %+v, want GET sequence", list)
	}
	if !list.Extensions.Pageable {
		t.Error("list.Pageable = false, want true")
	}
	if list.Extensions.NextOperation == nil || list.Extensions.NextOperation.Operation != "listNext" {
		t.Errorf("list.NextOperation = %+v, want listNext", list.Extensions.NextOperation)
	}
	if !list.GroupedParameter.HasField("filter") || !list.GroupedParameter.HasField("top") {
		t.Errorf("list.GroupedParameter = %+v, want filter and top fields", list.GroupedParameter)
	}

	create := ops[2]
	if !create.Extensions.LongRunning {
		t.Error("create.LongRunning = false, want true")
	}
	if create.Response != descriptor.KindScalar {
		t.Errorf("create.Response = %q, want scalar default", create.Response)
	}
	if ops[3].Response != descriptor.KindNone {
		t.Errorf("delete.Response = %q, want none", ops[3].Response)
	}
}

func TestLoadDescriptorSet_MissingFile(t *testing.T) {
	if _, err := LoadDescriptorSet("/nonexistent/descriptors.yaml"); err == nil {
		t.Fatal("LoadDescriptorSet() expected error for missing file")
	}
}
