package manifest

import (
	"bytes"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const indentation = "  "

// LineEnding selects the line terminator used when rendering a manifest.
type LineEnding string

const (
	LineEndingNative LineEnding = "native"
	LineEndingLF     LineEnding = "lf"
	LineEndingCRLF   LineEnding = "crlf"
)

var LineEndings = []string{string(LineEndingNative), string(LineEndingLF), string(LineEndingCRLF)}

// Terminator returns the literal terminator. Unknown values fall back to the
// host convention.
func (l LineEnding) Terminator() string {
	switch l {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	}
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

func ParseLineEnding(s string) (LineEnding, error) {
	if s == "" {
		return LineEndingNative, nil
	}
	l := LineEnding(strings.ToLower(s))
	if !slices.Contains(LineEndings, string(l)) {
		return "", fmt.Errorf("line ending must be one of: %s", strings.Join(LineEndings, ", "))
	}
	return l, nil
}

// SortKeys returns a copy of a mapping node with its pairs in ascending
// lexical key order. Other node kinds are returned as clones.
func SortKeys(n *yaml.Node) *yaml.Node {
	c := cloneNode(n)
	if c == nil || c.Kind != yaml.MappingNode {
		return c
	}

	type pair struct{ key, value *yaml.Node }
	pairs := make([]pair, 0, len(c.Content)/2)
	for i := 0; i+1 < len(c.Content); i += 2 {
		pairs = append(pairs, pair{c.Content[i], c.Content[i+1]})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int {
		return strings.Compare(a.key.Value, b.key.Value)
	})

	c.Content = c.Content[:0]
	for _, p := range pairs {
		c.Content = append(c.Content, p.key, p.value)
	}
	return c
}

// Stringify renders the document as 2-space indented JSON in its current key
// order, terminated by exactly one line terminator. Number literals are kept
// as parsed and strings are not HTML escaped.
func Stringify(doc *Document, eol LineEnding) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderJSON(&buf, doc.documentNode(), indentation, 0); err != nil {
		return nil, fmt.Errorf("failed to render manifest: %w", err)
	}

	out := buf.Bytes()

	terminator := eol.Terminator()
	if terminator != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(terminator))
	}

	return append(out, terminator...), nil
}
