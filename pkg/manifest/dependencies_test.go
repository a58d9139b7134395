package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, input, data string) *Document {
	t.Helper()

	doc, err := Parse(input, []byte(data))
	require.NoError(t, err)
	return doc
}

func pairs(n *yaml.Node) [][2]string {
	if n == nil {
		return nil
	}
	var out [][2]string
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]string{n.Content[i].Value, n.Content[i+1].Value})
	}
	return out
}

func TestMergeDependencies(t *testing.T) {
	t.Parallel()

	base := mustParse(t, InputBase, `{"dependencies": {"a": "1", "b": "1", "c": "1"}, "devDependencies": {"x": "1"}}`)
	ours := mustParse(t, InputOurs, `{"dependencies": {"z": "1", "c": "2", "b": "1", "a": "1"}, "devDependencies": {"x": "1"}}`)
	theirs := mustParse(t, InputTheirs, `{"dependencies": {"a": "2", "c": "3", "d": "1"}}`)

	merged, collisions, err := MergeDependencies(base, ours, theirs, []string{"dependencies", "devDependencies"})
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"a", "2"}, {"c", "3"}, {"d", "1"}, {"z", "1"}}, pairs(merged["dependencies"]))
	assert.Contains(t, merged, "devDependencies")
	assert.Nil(t, merged["devDependencies"])

	require.Len(t, collisions, 1)
	assert.Equal(t, "/dependencies/c", collisions[0].Path)
	assert.Equal(t, "2", collisions[0].Ours)
	assert.Equal(t, "3", collisions[0].Theirs)
}

func TestMergeDependencies_RemovalOfLocallyChangedName(t *testing.T) {
	t.Parallel()

	base := mustParse(t, InputBase, `{"dependencies": {"a": "1", "b": "1"}}`)
	ours := mustParse(t, InputOurs, `{"dependencies": {"a": "1.5", "b": "1"}}`)
	theirs := mustParse(t, InputTheirs, `{"dependencies": {"b": "1"}}`)

	merged, collisions, err := MergeDependencies(base, ours, theirs, []string{"dependencies"})
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"b", "1"}}, pairs(merged["dependencies"]))
	require.Len(t, collisions, 1)
	assert.Equal(t, Collision{Path: "/dependencies/a", Base: "1", Ours: "1.5"}, collisions[0])
}

func TestMergeDependencies_RemovingAbsentNameIsNoop(t *testing.T) {
	t.Parallel()

	base := mustParse(t, InputBase, `{"dependencies": {"a": "1"}}`)
	ours := mustParse(t, InputOurs, `{"dependencies": {"b": "1"}}`)
	theirs := mustParse(t, InputTheirs, `{}`)

	merged, collisions, err := MergeDependencies(base, ours, theirs, []string{"dependencies"})
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"b", "1"}}, pairs(merged["dependencies"]))
	assert.Empty(t, collisions)
}

func TestMergeDependencies_NoFields(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, InputBase, `{"dependencies": {"a": "1"}}`)

	merged, collisions, err := MergeDependencies(doc, doc, doc, nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
	assert.Empty(t, collisions)
}

func TestValidateDependencyFields(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, InputOurs, `{
  "dependencies": "a",
  "devDependencies": {"a": {"version": "1"}},
  "peerDependencies": {"a": "1"},
  "optionalDependencies": null,
  "bundledDependencies": [true]
}`)

	err := ValidateDependencyFields(doc, InputOurs, DefaultDependencyFields)
	require.Error(t, err)

	var shape *UnsupportedFieldShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "dependencies", shape.Field)
	assert.Equal(t, InputOurs, shape.Input)

	assert.Contains(t, err.Error(), "3 errors occurred")
	assert.Contains(t, err.Error(), `version of "a" must be a string, got an object`)
	assert.Contains(t, err.Error(), "got an array")
	assert.NotContains(t, err.Error(), "peerDependencies")
	assert.NotContains(t, err.Error(), "optionalDependencies")
}
