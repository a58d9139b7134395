package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/speakeasy-api/openapi/jsonpointer"
	"gopkg.in/yaml.v3"
)

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

const appendToken = "-"

// parsePointer splits an RFC 6901 pointer into unescaped reference tokens.
func parsePointer(p string) ([]string, error) {
	if p == "" {
		return nil, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("invalid JSON pointer %q", p)
	}

	tokens := strings.Split(p[1:], "/")
	for i, t := range tokens {
		tokens[i] = pointerUnescaper.Replace(t)
	}
	return tokens, nil
}

func formatPointer(tokens []string) string {
	return string(jsonpointer.PartsToJSONPointer(tokens))
}

// lookup resolves tokens against n. Missing keys, out of range indices and
// the append token resolve to nil.
func lookup(n *yaml.Node, tokens []string) *yaml.Node {
	cur := n
	for _, t := range tokens {
		if cur == nil {
			return nil
		}
		switch cur.Kind {
		case yaml.MappingNode:
			cur = mappingGet(cur, t)
		case yaml.SequenceNode:
			i, ok := arrayIndex(t, len(cur.Content))
			if !ok {
				return nil
			}
			cur = cur.Content[i]
		default:
			return nil
		}
	}
	return cur
}

// arrayIndex parses t as an index into an array of length n.
func arrayIndex(t string, n int) (int, bool) {
	if t == "" || (len(t) > 1 && t[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(t)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
