package cli

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/opcall-go/opcall/pkg/descriptor"
)

// YAML shape of a descriptor set file:
//
//	groups:
//	  - name: widgets
//	    operations:
//	      - name: list
//	        verb: GET
//	        path: /widgets
//	        response: sequence
//	        pageable: true
//	        next-operation: {operation: listNext}
//	        grouped-parameter: {parameter: options, fields: [filter, top]}
type descriptorFile struct {
	Groups []groupEntry `koanf:"groups"`
}

type groupEntry struct {
	Name       string           `koanf:"name"`
	Operations []operationEntry `koanf:"operations"`
}

type operationEntry struct {
	Name             string          `koanf:"name"`
	Verb             string          `koanf:"verb"`
	Path             string          `koanf:"path"`
	Response         string          `koanf:"response"`
	Pageable         bool            `koanf:"pageable"`
	LongRunning      bool            `koanf:"long-running"`
	NextOperation    *nextOpEntry    `koanf:"next-operation"`
	GroupedParameter *groupSpecEntry `koanf:"grouped-parameter"`
}

type nextOpEntry struct {
	Operation string `koanf:"operation"`
	Group     string `koanf:"group"`
}

type groupSpecEntry struct {
	Parameter string   `koanf:"parameter"`
	Fields    []string `koanf:"fields"`
}

// LoadDescriptorSet reads a descriptor set from a YAML file.
func LoadDescriptorSet(path string) (*descriptor.Set, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading descriptor file: %w", err)
	}

	var raw descriptorFile
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling descriptor file: %w", err)
	}

	set := &descriptor.Set{}
	for _, g := range raw.Groups {
		group := descriptor.Group{Name: g.Name}
		for _, op := range g.Operations {
			d := descriptor.Descriptor{
				Name:     op.Name,
				Verb:     descriptor.Verb(op.Verb),
				Path:     op.Path,
				Response: responseKind(op.Response),
				Extensions: descriptor.Extensions{
					Pageable:    op.Pageable,
					LongRunning: op.LongRunning,
				},
			}
			if op.NextOperation != nil {
				d.Extensions.NextOperation = &descriptor.NextOperationRef{
					Operation: op.NextOperation.Operation,
					Group:     op.NextOperation.Group,
				}
			}
			if op.GroupedParameter != nil {
				d.GroupedParameter = &descriptor.GroupSpec{
					Parameter: op.GroupedParameter.Parameter,
					Fields:    op.GroupedParameter.Fields,
				}
			}
			group.Operations = append(group.Operations, d)
		}
		set.Groups = append(set.Groups, group)
	}

	return set, nil
}

func responseKind(s string) descriptor.ResponseKind {
	switch s {
	case "none":
		return descriptor.KindNone
	case "sequence":
		return descriptor.KindSequence
	default:
		return descriptor.KindScalar
	}
}
