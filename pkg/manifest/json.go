package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeJSON builds an ordered tree from one JSON value. Duplicate object keys
// keep the position of their first occurrence and the value of their last.
func decodeJSON(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeValue(dec)
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("unexpected data after top-level value")
	}

	return n, nil
}

func decodeValue(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected %q", v)
	case string:
		return stringNode(v), nil
	case json.Number:
		return numberNode(v.String()), nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		mappingSet(m, key, value)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) (*yaml.Node, error) {
	s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		s.Content = append(s.Content, value)
	}

	// closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}

func numberNode(literal string) *yaml.Node {
	tag := "!!int"
	if strings.ContainsAny(literal, ".eE") {
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: literal}
}

// unmarshalJSON decodes like json.Unmarshal but keeps numbers as json.Number,
// so literals outside the float64 range survive.
func unmarshalJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// renderJSON writes n as indented JSON in tree order. Number literals are
// written as parsed and strings are not HTML escaped.
func renderJSON(w *bytes.Buffer, n *yaml.Node, indent string, depth int) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return errors.New("document must hold exactly one value")
		}
		return renderJSON(w, n.Content[0], indent, depth)
	case yaml.AliasNode:
		return renderJSON(w, n.Alias, indent, depth)
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			w.WriteString("{}")
			return nil
		}
		w.WriteString("{")
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				w.WriteString(",")
			}
			newline(w, indent, depth+1)
			if err := writeString(w, n.Content[i].Value); err != nil {
				return err
			}
			w.WriteString(": ")
			if err := renderJSON(w, n.Content[i+1], indent, depth+1); err != nil {
				return err
			}
		}
		newline(w, indent, depth)
		w.WriteString("}")
		return nil
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			w.WriteString("[]")
			return nil
		}
		w.WriteString("[")
		for i, child := range n.Content {
			if i > 0 {
				w.WriteString(",")
			}
			newline(w, indent, depth+1)
			if err := renderJSON(w, child, indent, depth+1); err != nil {
				return err
			}
		}
		newline(w, indent, depth)
		w.WriteString("]")
		return nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return writeString(w, n.Value)
		case "!!int", "!!float":
			if !json.Valid([]byte(n.Value)) {
				return fmt.Errorf("invalid number literal %q", n.Value)
			}
			w.WriteString(n.Value)
			return nil
		case "!!bool":
			w.WriteString(strconv.FormatBool(n.Value == "true"))
			return nil
		case "!!null":
			w.WriteString("null")
			return nil
		}
		return fmt.Errorf("unsupported scalar tag %s", n.ShortTag())
	}

	return fmt.Errorf("unknown node kind: %v", n.Kind)
}

func newline(w *bytes.Buffer, indent string, depth int) {
	w.WriteByte('\n')
	for range depth {
		w.WriteString(indent)
	}
}

func writeString(w *bytes.Buffer, s string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return nil
}
