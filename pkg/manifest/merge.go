package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Status summarises how a merge went.
type Status string

const (
	StatusClean       Status = "CLEAN"
	StatusFastForward Status = "FAST_FORWARD" // ours equals base
	StatusUnchanged   Status = "UNCHANGED"    // theirs equals base
	StatusResolved    Status = "RESOLVED"     // collisions resolved in favour of theirs
)

// Collision is a location that both sides changed to different values. The
// merged document always holds the Theirs value. Nil means absent.
type Collision struct {
	Path   string `json:"path"`
	Base   any    `json:"base,omitempty"`
	Ours   any    `json:"ours,omitempty"`
	Theirs any    `json:"theirs,omitempty"`
}

// Input holds the three raw manifests of a merge.
type Input struct {
	Base, Ours, Theirs []byte
}

type Result struct {
	Content    []byte
	Status     Status
	Collisions []Collision
}

type options struct {
	fields     []string
	lineEnding LineEnding
}

type Option func(*options)

// WithDependencyFields overrides DefaultDependencyFields. Calling it with no
// names disables the dependency merge entirely.
func WithDependencyFields(fields ...string) Option {
	return func(o *options) {
		o.fields = append([]string{}, fields...)
	}
}

func WithLineEnding(l LineEnding) Option {
	return func(o *options) {
		o.lineEnding = l
	}
}

// MergeManifests merges three JSON manifests and returns the canonical merged
// text. fields defaults to DefaultDependencyFields when none are given.
func MergeManifests(base, ours, theirs []byte, fields ...string) ([]byte, error) {
	var opts []Option
	if len(fields) > 0 {
		opts = append(opts, WithDependencyFields(fields...))
	}

	res, err := Merge(Input{Base: base, Ours: ours, Theirs: theirs}, opts...)
	if err != nil {
		return nil, err
	}
	return res.Content, nil
}

// Merge parses, merges and renders one manifest triple.
func Merge(in Input, opts ...Option) (*Result, error) {
	o := options{lineEnding: LineEndingNative}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fields == nil {
		o.fields = DefaultDependencyFields
	}

	base, err := Parse(InputBase, in.Base)
	if err != nil {
		return nil, err
	}
	ours, err := Parse(InputOurs, in.Ours)
	if err != nil {
		return nil, err
	}
	theirs, err := Parse(InputTheirs, in.Theirs)
	if err != nil {
		return nil, err
	}

	merged, collisions, err := MergeDocuments(base, ours, theirs, o.fields)
	if err != nil {
		return nil, err
	}

	content, err := Stringify(merged, o.lineEnding)
	if err != nil {
		return nil, err
	}

	status := StatusClean
	switch {
	case len(collisions) > 0:
		status = StatusResolved
	case ours.Equal(base):
		status = StatusFastForward
	case theirs.Equal(base):
		status = StatusUnchanged
	}

	return &Result{Content: content, Status: status, Collisions: collisions}, nil
}

// MergeDocuments merges parsed manifests. The arguments are cloned first, so
// the same document may be passed for more than one side.
func MergeDocuments(base, ours, theirs *Document, fields []string) (*Document, []Collision, error) {
	base, ours, theirs = base.Clone(), ours.Clone(), theirs.Clone()

	var errs *multierror.Error
	for _, side := range []struct {
		name string
		doc  *Document
	}{{InputBase, base}, {InputOurs, ours}, {InputTheirs, theirs}} {
		if err := ValidateDependencyFields(side.doc, side.name, fields); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, nil, err
	}

	deps, depCollisions, err := MergeDependencies(base, ours, theirs, fields)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge dependency fields: %w", err)
	}

	merged, collisions, err := MergeGeneric(base, ours, theirs, fields)
	if err != nil {
		return nil, nil, err
	}

	for _, field := range fields {
		n := deps[field]
		switch {
		case n == nil:
			merged.delete(field)
		case mappingIndex(merged.root, field) >= 0:
			merged.set(field, n)
		default:
			mappingInsert(merged.root, insertPosition(merged.root, theirs.root, field), field, n)
		}
	}

	collisions = append(collisions, depCollisions...)
	slices.SortStableFunc(collisions, func(a, b Collision) int {
		return strings.Compare(a.Path, b.Path)
	})

	return merged, collisions, nil
}
