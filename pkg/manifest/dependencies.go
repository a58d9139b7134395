package manifest

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultDependencyFields are the manifest keys merged by name rather than by
// position.
var DefaultDependencyFields = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"bundledDependencies",
	"optionalDependencies",
}

// dependencyNode returns the mapping stored at field, or nil when the field is
// absent or null.
func dependencyNode(doc *Document, input, field string) (*yaml.Node, error) {
	n, ok := doc.Get(field)
	if !ok || n.ShortTag() == "!!null" {
		return nil, nil
	}

	if n.Kind != yaml.MappingNode {
		return nil, &UnsupportedFieldShapeError{Input: input, Field: field, Reason: "expected an object of name to version, got " + describeNode(n)}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		v := n.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
			return nil, &UnsupportedFieldShapeError{
				Input:  input,
				Field:  field,
				Reason: fmt.Sprintf("version of %q must be a string, got %s", n.Content[i].Value, describeNode(v)),
			}
		}
	}

	return n, nil
}

func dependencyMap(doc *Document, input, field string) (map[string]string, error) {
	n, err := dependencyNode(doc, input, field)
	if err != nil {
		return nil, err
	}

	deps := map[string]string{}
	if n == nil {
		return deps, nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		deps[n.Content[i].Value] = n.Content[i+1].Value
	}
	return deps, nil
}

// ValidateDependencyFields checks the shape of every named field and returns
// all violations at once.
func ValidateDependencyFields(doc *Document, input string, fields []string) error {
	var errs *multierror.Error
	for _, field := range fields {
		if _, err := dependencyNode(doc, input, field); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// MergeDependencies replays the base to theirs delta of each dependency field
// onto ours. A nil entry in the returned map means the field ends up empty and
// must be omitted. Returned mappings are sorted by name.
func MergeDependencies(base, ours, theirs *Document, fields []string) (map[string]*yaml.Node, []Collision, error) {
	deltas, err := ClassifyFields(base, theirs, fields)
	if err != nil {
		return nil, nil, err
	}

	merged := make(map[string]*yaml.Node, len(fields))
	var collisions []Collision

	for _, field := range fields {
		b, err := dependencyMap(base, InputBase, field)
		if err != nil {
			return nil, nil, err
		}
		oursNode, err := dependencyNode(ours, InputOurs, field)
		if err != nil {
			return nil, nil, err
		}

		working := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if oursNode != nil {
			working = cloneNode(oursNode)
		}

		for _, op := range deltas[field] {
			current := mappingGet(working, op.Name)

			switch op.Kind {
			case OperationAdd, OperationChange:
				if current != nil && current.Value != op.Version && divergedFromBase(current, b, op.Name) {
					collisions = append(collisions, dependencyCollision(field, op.Name, b, current.Value, op.Version, true))
				}
				mappingSet(working, op.Name, stringNode(op.Version))
			case OperationRemove:
				if current != nil && divergedFromBase(current, b, op.Name) {
					collisions = append(collisions, dependencyCollision(field, op.Name, b, current.Value, "", false))
				}
				mappingDelete(working, op.Name)
			}
		}

		if len(working.Content) == 0 {
			merged[field] = nil
			continue
		}
		merged[field] = SortKeys(working)
	}

	return merged, collisions, nil
}

func divergedFromBase(current *yaml.Node, base map[string]string, name string) bool {
	b, ok := base[name]
	return !ok || b != current.Value
}

func dependencyCollision(field, name string, base map[string]string, ours, theirs string, theirsPresent bool) Collision {
	c := Collision{
		Path: formatPointer([]string{field, name}),
		Ours: ours,
	}
	if b, ok := base[name]; ok {
		c.Base = b
	}
	if theirsPresent {
		c.Theirs = theirs
	}
	return c
}

func describeNode(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "an array"
	case yaml.MappingNode:
		return "an object"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return "a string"
		case "!!int", "!!float":
			return "a number"
		case "!!bool":
			return "a boolean"
		case "!!null":
			return "null"
		}
	}
	return "an unsupported value"
}
