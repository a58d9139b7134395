package merging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speakeasy-api/pkgmerge/internal/fs"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapProvider serves base and theirs from memory. A missing key is reported as
// ErrNotFound.
type mapProvider struct {
	base, theirs map[string]string
	err          error
}

func (p mapProvider) Base(path string) ([]byte, error) {
	return p.get(p.base, path)
}

func (p mapProvider) Theirs(path string) ([]byte, error) {
	return p.get(p.theirs, path)
}

func (p mapProvider) get(m map[string]string, path string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	content, ok := m[path]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(content), nil
}

func newTestEngine(t *testing.T, provider HistoryProvider, ours map[string]string) (*Engine, string) {
	t.Helper()

	root := t.TempDir()
	for path, content := range ours {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	e := NewEngine(provider, NewManifestMerger(manifest.WithLineEnding(manifest.LineEndingLF)), fs.NewFileSystem())
	e.Root = root
	e.Concurrency = 2

	return e, root
}

func readFile(t *testing.T, root, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	require.NoError(t, err)
	return string(data)
}

func assertKeyOrder(t *testing.T, content string, keys ...string) {
	t.Helper()
	last := -1
	for _, k := range keys {
		i := strings.Index(content, `"`+k+`"`)
		require.Greater(t, i, last, "key %q out of order in %s", k, content)
		last = i
	}
}

func TestEngine_ProcessBatch(t *testing.T) {
	t.Parallel()

	provider := mapProvider{
		base: map[string]string{
			"package.json":     `{"name":"root","version":"1.0.0"}`,
			"web/package.json": `{"name":"web","dependencies":{"react":"17"}}`,
			"api/package.json": `{"name":"api"}`,
		},
		theirs: map[string]string{
			"package.json":     `{"name":"root","version":"1.1.0"}`,
			"web/package.json": `{"name":"web","dependencies":{"react":"18"}}`,
			"lib/package.json": `{"name":"lib","version":"0.1.0"}`,
			"new/package.json": `{"name":"new"}`,
		},
	}
	ours := map[string]string{
		"package.json":     `{"name":"root","version":"1.0.0","private":true}`,
		"web/package.json": `{"name":"web","dependencies":{"react":"17.0.2"}}`,
		"api/package.json": `{"name":"api"}`,
		"new/package.json": `{"name":"local"}`,
	}

	e, root := newTestEngine(t, provider, ours)

	jobs := []Job{
		{Path: "package.json"},
		{Path: "web/package.json"},
		{Path: "api/package.json"},
		{Path: "lib/package.json"},
		{Path: "new/package.json"},
	}
	results, err := e.ProcessBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, job := range jobs {
		assert.Equal(t, job.Path, results[i].Path)
	}

	assert.Equal(t, MergeStatusClean, results[0].Status)
	assert.True(t, results[0].Written)
	rootManifest := readFile(t, root, "package.json")
	assert.JSONEq(t, `{"name":"root","version":"1.1.0","private":true}`, rootManifest)
	assertKeyOrder(t, rootManifest, "name", "version", "private")

	assert.Equal(t, MergeStatusResolved, results[1].Status)
	require.Len(t, results[1].Collisions, 1)
	assert.Equal(t, "/dependencies/react", results[1].Collisions[0].Path)
	assert.JSONEq(t, `{"name":"web","dependencies":{"react":"18"}}`, readFile(t, root, "web/package.json"))

	assert.Equal(t, MergeStatusSkipped, results[2].Status)
	assert.False(t, results[2].Written)
	assert.Equal(t, `{"name":"api"}`, readFile(t, root, "api/package.json"))

	assert.Equal(t, MergeStatusCreated, results[3].Status)
	assert.True(t, results[3].Written)
	libManifest := readFile(t, root, "lib/package.json")
	assert.JSONEq(t, `{"name":"lib","version":"0.1.0"}`, libManifest)
	assertKeyOrder(t, libManifest, "name", "version")

	// base is missing, so theirs is replayed against an empty object
	assert.Equal(t, MergeStatusResolved, results[4].Status)
	assert.JSONEq(t, `{"name":"new"}`, readFile(t, root, "new/package.json"))
}

func TestEngine_DryRun(t *testing.T) {
	t.Parallel()

	provider := mapProvider{
		base:   map[string]string{"package.json": `{"version":"1.0.0"}`},
		theirs: map[string]string{"package.json": `{"version":"2.0.0"}`},
	}
	e, root := newTestEngine(t, provider, map[string]string{"package.json": `{"version":"1.0.0"}`})
	e.DryRun = true

	results, err := e.ProcessBatch(context.Background(), []Job{{Path: "package.json"}})
	require.NoError(t, err)

	assert.Equal(t, MergeStatusFastForward, results[0].Status)
	assert.False(t, results[0].Written)
	assert.JSONEq(t, `{"version":"2.0.0"}`, string(results[0].Content))
	assert.Equal(t, `{"version":"1.0.0"}`, readFile(t, root, "package.json"))
}

func TestEngine_UnchangedContentIsNotRewritten(t *testing.T) {
	t.Parallel()

	provider := mapProvider{
		base:   map[string]string{"package.json": `{"version":"1.0.0"}`},
		theirs: map[string]string{"package.json": `{"version":"1.0.0"}`},
	}
	e, root := newTestEngine(t, provider, map[string]string{"package.json": `{"version":"1.0.0"}`})

	_, err := e.ProcessBatch(context.Background(), []Job{{Path: "package.json"}})
	require.NoError(t, err)
	canonical := readFile(t, root, "package.json")

	results, err := e.ProcessBatch(context.Background(), []Job{{Path: "package.json"}})
	require.NoError(t, err)

	assert.Equal(t, MergeStatusFastForward, results[0].Status)
	assert.False(t, results[0].Written)
	assert.Equal(t, canonical, readFile(t, root, "package.json"))
}

func TestEngine_FailuresDoNotStopTheBatch(t *testing.T) {
	t.Parallel()

	provider := mapProvider{
		base: map[string]string{
			"a/package.json": `{}`,
			"b/package.json": `{}`,
		},
		theirs: map[string]string{
			"a/package.json": `{"dependencies":["x"]}`,
			"b/package.json": `{"name":"b"}`,
		},
	}
	e, root := newTestEngine(t, provider, map[string]string{
		"a/package.json": `{}`,
		"b/package.json": `{}`,
	})

	results, err := e.ProcessBatch(context.Background(), []Job{{Path: "a/package.json"}, {Path: "b/package.json"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a/package.json")

	var shapeErr *manifest.UnsupportedFieldShapeError
	assert.ErrorAs(t, err, &shapeErr)

	assert.Equal(t, MergeStatusFailed, results[0].Status)
	assert.Equal(t, MergeStatusFastForward, results[1].Status)
	assert.JSONEq(t, `{"name":"b"}`, readFile(t, root, "b/package.json"))
}

func TestEngine_ProviderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	e, _ := newTestEngine(t, mapProvider{err: boom}, nil)

	results, err := e.ProcessBatch(context.Background(), []Job{{Path: "package.json"}})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, MergeStatusFailed, results[0].Status)
}

func TestEngine_CancelledContext(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, mapProvider{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := e.ProcessBatch(ctx, []Job{{Path: "package.json"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, MergeStatusFailed, results[0].Status)
}
