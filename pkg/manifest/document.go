package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ericlagergren/decimal"
	"gopkg.in/yaml.v3"
)

const (
	InputBase   = "base"
	InputOurs   = "ours"
	InputTheirs = "theirs"
)

// Document is a parsed manifest. It wraps a yaml.Node tree so that object key
// order survives parsing, merging and rendering.
type Document struct {
	root *yaml.Node
}

// Parse parses a JSON manifest. input names which side of the merge the data
// belongs to and is only used for error reporting.
func Parse(input string, data []byte) (*Document, error) {
	root, err := decodeJSON(data)
	if err != nil {
		return nil, &MalformedInputError{Input: input, Err: err}
	}
	if root.Kind != yaml.MappingNode {
		return nil, &MalformedInputError{Input: input, Err: fmt.Errorf("top-level value is %s, expected an object", describeNode(root))}
	}

	return &Document{root: root}, nil
}

// NewDocument returns an empty manifest.
func NewDocument() *Document {
	return &Document{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.root.Content)/2)
	for i := 0; i < len(d.root.Content); i += 2 {
		keys = append(keys, d.root.Content[i].Value)
	}
	return keys
}

// Get returns the value stored at a top-level key.
func (d *Document) Get(key string) (*yaml.Node, bool) {
	v := mappingGet(d.root, key)
	return v, v != nil
}

// Equal reports whether both documents hold the same JSON value. Object key
// order is not significant.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return nodesEqual(d.root, other.root)
}

// Clone returns a deep copy sharing no nodes with d.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// JSON returns the document as JSON text, the form used for diffing.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := renderJSON(&buf, d.root, "", 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) documentNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{d.root}}
}

func (d *Document) set(key string, value *yaml.Node) {
	mappingSet(d.root, key, value)
}

func (d *Document) delete(key string) {
	mappingDelete(d.root, key)
}

func mappingIndex(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func mappingGet(m *yaml.Node, key string) *yaml.Node {
	if i := mappingIndex(m, key); i >= 0 {
		return m.Content[i+1]
	}
	return nil
}

// mappingSet replaces the value of key in place or appends the pair.
func mappingSet(m *yaml.Node, key string, value *yaml.Node) {
	if i := mappingIndex(m, key); i >= 0 {
		m.Content[i+1] = value
		return
	}
	m.Content = append(m.Content, keyNode(key), value)
}

// mappingInsert adds key at pair position pos, shifting later pairs.
func mappingInsert(m *yaml.Node, pos int, key string, value *yaml.Node) {
	at := pos * 2
	if at < 0 || at > len(m.Content) {
		at = len(m.Content)
	}
	content := make([]*yaml.Node, 0, len(m.Content)+2)
	content = append(content, m.Content[:at]...)
	content = append(content, keyNode(key), value)
	content = append(content, m.Content[at:]...)
	m.Content = content
}

func mappingDelete(m *yaml.Node, key string) bool {
	i := mappingIndex(m, key)
	if i < 0 {
		return false
	}
	m.Content = append(m.Content[:i], m.Content[i+2:]...)
	return true
}

func keyNode(key string) *yaml.Node {
	return stringNode(key)
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Alias = cloneNode(n.Alias)
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}

// nodesEqual compares two trees as JSON values.
func nodesEqual(a, b *yaml.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind == yaml.AliasNode {
		return nodesEqual(a.Alias, b)
	}
	if b.Kind == yaml.AliasNode {
		return nodesEqual(a, b.Alias)
	}
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case yaml.ScalarNode:
		return scalarsEqual(a, b)
	case yaml.SequenceNode:
		if len(a.Content) != len(b.Content) {
			return false
		}
		for i := range a.Content {
			if !nodesEqual(a.Content[i], b.Content[i]) {
				return false
			}
		}
		return true
	case yaml.MappingNode:
		if len(a.Content) != len(b.Content) {
			return false
		}
		for i := 0; i+1 < len(a.Content); i += 2 {
			if !nodesEqual(a.Content[i+1], mappingGet(b, a.Content[i].Value)) {
				return false
			}
		}
		return true
	case yaml.DocumentNode:
		return len(a.Content) == len(b.Content) && (len(a.Content) == 0 || nodesEqual(a.Content[0], b.Content[0]))
	}

	return false
}

func scalarsEqual(a, b *yaml.Node) bool {
	ta, tb := a.ShortTag(), b.ShortTag()
	if isNumberTag(ta) && isNumberTag(tb) {
		return numbersEqual(a.Value, b.Value)
	}
	return ta == tb && a.Value == b.Value
}

func isNumberTag(tag string) bool {
	return tag == "!!int" || tag == "!!float"
}

// numbersEqual compares JSON number literals by exact decimal value, so 1,
// 1.0 and 1e0 are the same number.
func numbersEqual(a, b string) bool {
	if a == b {
		return true
	}
	da, okA := new(decimal.Big).SetString(a)
	db, okB := new(decimal.Big).SetString(b)
	return okA && okB && da.Cmp(db) == 0
}

// nodeValue converts n to plain Go values for reporting. Absent nodes and
// null are nil; numbers keep their literal as json.Number.
func nodeValue(n *yaml.Node) any {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			s = append(s, nodeValue(child))
		}
		return s
	}

	switch n.ShortTag() {
	case "!!int", "!!float":
		return json.Number(n.Value)
	case "!!bool":
		return n.Value == "true"
	case "!!null":
		return nil
	}
	return n.Value
}
