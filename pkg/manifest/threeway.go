package manifest

import (
	"slices"

	"github.com/samber/lo"
)

// OperationKind tags a DependencyOperation.
type OperationKind string

const (
	OperationAdd       OperationKind = "add"
	OperationRemove    OperationKind = "remove"
	OperationChange    OperationKind = "change"
	OperationUnchanged OperationKind = "unchanged"
)

// DependencyOperation is one entry of the base to theirs delta for a single
// dependency field. Version is empty for removals.
type DependencyOperation struct {
	Kind    OperationKind
	Name    string
	Version string
}

// ClassifyDependencies partitions every name in base and theirs into exactly
// one operation. Versions are compared as opaque strings. The result is
// ordered by name.
func ClassifyDependencies(base, theirs map[string]string) []DependencyOperation {
	names := lo.Uniq(append(lo.Keys(base), lo.Keys(theirs)...))
	slices.Sort(names)

	ops := make([]DependencyOperation, 0, len(names))
	for _, name := range names {
		b, inBase := base[name]
		t, inTheirs := theirs[name]

		switch {
		case inTheirs && !inBase:
			ops = append(ops, DependencyOperation{Kind: OperationAdd, Name: name, Version: t})
		case inBase && !inTheirs:
			ops = append(ops, DependencyOperation{Kind: OperationRemove, Name: name})
		case b != t:
			ops = append(ops, DependencyOperation{Kind: OperationChange, Name: name, Version: t})
		default:
			ops = append(ops, DependencyOperation{Kind: OperationUnchanged, Name: name, Version: t})
		}
	}

	return ops
}

// ClassifyFields runs ClassifyDependencies for each named field of base and
// theirs. Missing fields classify as empty maps.
func ClassifyFields(base, theirs *Document, fields []string) (map[string][]DependencyOperation, error) {
	out := make(map[string][]DependencyOperation, len(fields))
	for _, field := range fields {
		b, err := dependencyMap(base, InputBase, field)
		if err != nil {
			return nil, err
		}
		t, err := dependencyMap(theirs, InputTheirs, field)
		if err != nil {
			return nil, err
		}
		out[field] = ClassifyDependencies(b, t)
	}
	return out, nil
}
