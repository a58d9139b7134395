package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/wI2L/jsondiff"
	"gopkg.in/yaml.v3"
)

// EditScript is an ordered list of RFC 6902 operations.
type EditScript = jsondiff.Patch

// ComputeEditScript returns the operations transforming base into theirs.
// Arrays are compared by index.
func ComputeEditScript(base, theirs *Document) (EditScript, error) {
	src, err := base.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode base manifest: %w", err)
	}
	tgt, err := theirs.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode theirs manifest: %w", err)
	}

	patch, err := jsondiff.CompareJSON(src, tgt, jsondiff.UnmarshalFunc(unmarshalJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compute edit script: %w", err)
	}
	return patch, nil
}

// MergeGeneric applies the base to theirs edit script onto a copy of ours.
// Operations under a top-level key listed in skip are ignored.
func MergeGeneric(base, ours, theirs *Document, skip []string) (*Document, []Collision, error) {
	script, err := ComputeEditScript(base, theirs)
	if err != nil {
		return nil, nil, err
	}

	working := ours.Clone()

	a := &applier{
		base:    base.root,
		theirs:  theirs.root,
		work:    working.root,
		skip:    skip,
		appends: map[string]int{},
		removes: map[string]int{},
	}
	for _, op := range script {
		if err := a.apply(op); err != nil {
			return nil, nil, err
		}
	}

	return working, a.collisions, nil
}

// applier replays an edit script onto the working tree. base and theirs are
// consulted at every step: values are copied from theirs so object key order
// is kept, and divergence of the working tree from base is recorded.
type applier struct {
	base, theirs, work *yaml.Node
	skip               []string
	// appends counts "-" additions per array so each one maps back to the
	// matching element of theirs.
	appends map[string]int
	// removes counts element removals per array. Every removal of a shrinking
	// array targets the same index, so the count maps it back to base.
	removes    map[string]int
	collisions []Collision
}

func (a *applier) apply(op jsondiff.Operation) error {
	tokens, err := parsePointer(op.Path)
	if err != nil {
		return err
	}
	if len(tokens) == 0 || slices.Contains(a.skip, tokens[0]) {
		return nil
	}

	parentTokens, last := tokens[:len(tokens)-1], tokens[len(tokens)-1]
	parent := lookup(a.work, parentTokens)
	if parent == nil {
		// ours removed the container
		return nil
	}

	switch op.Type {
	case jsondiff.OperationAdd, jsondiff.OperationReplace:
		value := a.incoming(op, tokens)
		switch parent.Kind {
		case yaml.MappingNode:
			a.setKey(parent, tokens, value)
		case yaml.SequenceNode:
			if op.Type == jsondiff.OperationAdd {
				a.insertElement(parent, parentTokens, last, value)
			} else {
				a.replaceElement(parent, tokens, value)
			}
		}
	case jsondiff.OperationRemove:
		switch parent.Kind {
		case yaml.MappingNode:
			a.removeKey(parent, tokens)
		case yaml.SequenceNode:
			a.removeElement(parent, parentTokens, tokens)
		}
	case jsondiff.OperationTest:
	default:
		return fmt.Errorf("unsupported edit operation %q at %s", op.Type, op.Path)
	}

	return nil
}

// incoming returns a copy of the value theirs holds for the operation.
func (a *applier) incoming(op jsondiff.Operation, tokens []string) *yaml.Node {
	parentTokens, last := tokens[:len(tokens)-1], tokens[len(tokens)-1]

	if last != appendToken {
		if n := lookup(a.theirs, tokens); n != nil {
			return cloneNode(n)
		}
		return encodeValue(op.Value)
	}

	parentPath := formatPointer(parentTokens)
	offset := a.appends[parentPath]
	a.appends[parentPath] = offset + 1

	theirsParent := lookup(a.theirs, parentTokens)
	if theirsParent != nil && theirsParent.Kind == yaml.SequenceNode {
		start := 0
		if baseParent := lookup(a.base, parentTokens); baseParent != nil && baseParent.Kind == yaml.SequenceNode {
			start = len(baseParent.Content)
		}
		if i := start + offset; i < len(theirsParent.Content) {
			return cloneNode(theirsParent.Content[i])
		}
	}

	return encodeValue(op.Value)
}

func (a *applier) setKey(parent *yaml.Node, tokens []string, value *yaml.Node) {
	key := tokens[len(tokens)-1]
	current := mappingGet(parent, key)
	if current != nil && nodesEqual(current, value) {
		return
	}

	a.noteCollision(tokens, current, value)

	if current != nil {
		mappingSet(parent, key, value)
		return
	}
	mappingInsert(parent, insertPosition(parent, lookup(a.theirs, tokens[:len(tokens)-1]), key), key, value)
}

// insertPosition places a new key of parent right after the closest key
// preceding it in reference that parent also has. -1 means append.
func insertPosition(parent, reference *yaml.Node, key string) int {
	if reference == nil || reference.Kind != yaml.MappingNode {
		return -1
	}

	i := mappingIndex(reference, key)
	if i < 0 {
		return -1
	}
	if i == 0 {
		return 0
	}
	for j := i - 2; j >= 0; j -= 2 {
		if k := mappingIndex(parent, reference.Content[j].Value); k >= 0 {
			return k/2 + 1
		}
	}
	return -1
}

func (a *applier) removeKey(parent *yaml.Node, tokens []string) {
	current := mappingGet(parent, tokens[len(tokens)-1])
	if current == nil {
		return
	}
	a.noteCollision(tokens, current, nil)
	mappingDelete(parent, tokens[len(tokens)-1])
}

func (a *applier) insertElement(parent *yaml.Node, parentTokens []string, last string, value *yaml.Node) {
	if nodesEqual(parent, lookup(a.theirs, parentTokens)) {
		return
	}

	if last == appendToken {
		parent.Content = append(parent.Content, value)
		return
	}

	i, err := strconv.Atoi(last)
	if err != nil || i < 0 {
		return
	}
	if i > len(parent.Content) {
		i = len(parent.Content)
	}
	parent.Content = slices.Insert(parent.Content, i, value)
}

func (a *applier) replaceElement(parent *yaml.Node, tokens []string, value *yaml.Node) {
	i, ok := arrayIndex(tokens[len(tokens)-1], len(parent.Content))
	if !ok {
		return
	}
	current := parent.Content[i]
	if nodesEqual(current, value) {
		return
	}
	a.noteCollision(tokens, current, value)
	parent.Content[i] = value
}

func (a *applier) removeElement(parent *yaml.Node, parentTokens, tokens []string) {
	parentPath := formatPointer(parentTokens)
	removed := a.removes[parentPath]
	a.removes[parentPath] = removed + 1

	if nodesEqual(parent, lookup(a.theirs, parentTokens)) {
		return
	}
	i, ok := arrayIndex(tokens[len(tokens)-1], len(parent.Content))
	if !ok {
		return
	}

	// report the element at its base position
	baseTokens := append(slices.Clone(parentTokens), strconv.Itoa(i+removed))
	a.noteCollision(baseTokens, parent.Content[i], nil)
	parent.Content = slices.Delete(parent.Content, i, i+1)
}

// noteCollision records the step when the working value had already moved
// away from base. current and incoming are known to differ.
func (a *applier) noteCollision(tokens []string, current, incoming *yaml.Node) {
	baseValue := lookup(a.base, tokens)
	if nodesEqual(current, baseValue) {
		return
	}
	a.collisions = append(a.collisions, Collision{
		Path:   formatPointer(tokens),
		Base:   nodeValue(baseValue),
		Ours:   nodeValue(current),
		Theirs: nodeValue(incoming),
	})
}

// encodeValue converts an edit script value into a tree.
func encodeValue(v any) *yaml.Node {
	data, err := json.Marshal(v)
	if err == nil {
		if n, err := decodeJSON(data); err == nil {
			return n
		}
	}
	return stringNode(fmt.Sprint(v))
}
