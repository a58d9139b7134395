package merging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/speakeasy-api/pkgmerge/internal/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commit(t *testing.T, repo *gitc.Repository, dir, name, content string) string {
	t.Helper()

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("update "+name, &gitc.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@test.com", When: time.Now()},
	})
	require.NoError(t, err)

	return hash.String()
}

func TestGitHistoryProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)

	from := commit(t, repo, dir, "package.json", `{"version":"1.0.0"}`)
	to := commit(t, repo, dir, "package.json", `{"version":"2.0.0"}`)
	commit(t, repo, dir, "other.json", `{}`)

	local, err := git.NewLocalRepository(dir)
	require.NoError(t, err)

	provider := NewGitHistoryProvider(local, from, to)

	base, err := provider.Base("package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0.0"}`, string(base))

	theirs, err := provider.Theirs("package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"2.0.0"}`, string(theirs))

	_, err = provider.Theirs("other.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewGitHistoryProvider(local, "", to).Base("package.json")
	assert.Error(t, err)
}
