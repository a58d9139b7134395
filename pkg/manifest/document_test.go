package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "empty", data: ``},
		{name: "yaml only", data: "name: pkg\n"},
		{name: "array", data: `[1, 2]`, want: "top-level value is an array, expected an object"},
		{name: "string", data: `"pkg"`, want: "top-level value is a string, expected an object"},
		{name: "null", data: `null`, want: "top-level value is null, expected an object"},
		{name: "trailing comma", data: `{"name": "pkg",}`},
		{name: "second value", data: `{"name": "pkg"} {}`, want: "unexpected data after top-level value"},
		{name: "truncated", data: `{"name": "pkg"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(InputTheirs, []byte(tt.data))
			require.Error(t, err)

			var malformed *MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, InputTheirs, malformed.Input)
			if tt.want != "" {
				assert.EqualError(t, malformed.Err, tt.want)
			}
		})
	}
}

func TestDocument_Keys(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, InputOurs, `{"version": "1.0.0", "name": "pkg", "scripts": {}}`)
	assert.Equal(t, []string{"version", "name", "scripts"}, doc.Keys())

	n, ok := doc.Get("name")
	require.True(t, ok)
	assert.Equal(t, "pkg", n.Value)

	_, ok = doc.Get("missing")
	assert.False(t, ok)
}

func TestDocument_Equal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{name: "key order ignored", a: `{"a": 1, "b": {"c": true, "d": null}}`, b: `{"b": {"d": null, "c": true}, "a": 1}`, equal: true},
		{name: "array order kept", a: `{"files": ["a", "b"]}`, b: `{"files": ["b", "a"]}`},
		{name: "number forms", a: `{"n": 1}`, b: `{"n": 1.0}`, equal: true},
		{name: "exponent", a: `{"n": 100}`, b: `{"n": 1e2}`, equal: true},
		{name: "different numbers", a: `{"n": 0.1}`, b: `{"n": 0.10000000000000001}`},
		{name: "number vs string", a: `{"n": 1}`, b: `{"n": "1"}`},
		{name: "missing key", a: `{"a": 1}`, b: `{"a": 1, "b": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := mustParse(t, InputBase, tt.a)
			b := mustParse(t, InputTheirs, tt.b)
			assert.Equal(t, tt.equal, a.Equal(b))
			assert.Equal(t, tt.equal, b.Equal(a))
		})
	}
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, InputOurs, `{"name": "pkg", "dependencies": {"a": "1.0.0"}}`)
	clone := doc.Clone()

	deps, _ := clone.Get("dependencies")
	mappingSet(deps, "b", stringNode("2.0.0"))
	clone.delete("name")

	assert.Equal(t, []string{"name", "dependencies"}, doc.Keys())
	orig, _ := doc.Get("dependencies")
	assert.Nil(t, mappingGet(orig, "b"))

	data, err := doc.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "pkg", "dependencies": {"a": "1.0.0"}}`, string(data))
}

func TestParse_AcceptsValidJSON(t *testing.T) {
	t.Parallel()

	longKey := strings.Repeat("k", 1100)

	tests := []struct {
		name  string
		data  string
		key   string
		value string
	}{
		{name: "escaped solidus", data: `{"a": "x\/y"}`, key: "a", value: "x/y"},
		{name: "unicode escape", data: `{"a": "\u00e9\ud83d\ude00"}`, key: "a", value: "\u00e9\U0001F600"},
		{name: "newline before colon", data: "{\"name\"\n : \"pkg\"}", key: "name", value: "pkg"},
		{name: "long key", data: `{"` + longKey + `": true}`, key: longKey, value: "true"},
		{name: "huge exponent", data: `{"n": 1e400}`, key: "n", value: "1e400"},
		{name: "negative zero", data: `{"n": -0.0}`, key: "n", value: "-0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := mustParse(t, InputOurs, tt.data)
			n, ok := doc.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.value, n.Value)
		})
	}
}

func TestParse_KeepsNumberLiterals(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, InputOurs, `{"big": 1e400, "precise": 0.10000000000000001, "id": 12345678901234567890}`)
	data, err := doc.JSON()
	require.NoError(t, err)
	assert.Equal(t, "{\n\"big\": 1e400,\n\"precise\": 0.10000000000000001,\n\"id\": 12345678901234567890\n}", string(data))
}

func TestParse_DuplicateKeysLastWins(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, InputOurs, `{"a": 1, "b": 2, "a": 3}`)
	assert.Equal(t, []string{"a", "b"}, doc.Keys())

	n, ok := doc.Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", n.Value)

	nested := mustParse(t, InputOurs, `{"deps": {"x": "1.0.0", "y": "1.0.0", "x": "2.0.0"}}`)
	deps, _ := nested.Get("deps")
	assert.Equal(t, "2.0.0", mappingGet(deps, "x").Value)
	assert.Len(t, deps.Content, 4)
}
