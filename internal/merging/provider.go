package merging

import (
	"errors"
	"fmt"

	"github.com/speakeasy-api/pkgmerge/internal/git"
)

// GitHistoryProvider implements HistoryProvider using two revisions of the
// local git repository.
type GitHistoryProvider struct {
	repo     *git.Repository
	from, to string
}

var _ HistoryProvider = (*GitHistoryProvider)(nil)

// NewGitHistoryProvider creates a provider reading base at from and theirs at to.
func NewGitHistoryProvider(repo *git.Repository, from, to string) *GitHistoryProvider {
	return &GitHistoryProvider{
		repo: repo,
		from: from,
		to:   to,
	}
}

func (p *GitHistoryProvider) Base(path string) ([]byte, error) {
	return p.fileAt(p.from, path)
}

func (p *GitHistoryProvider) Theirs(path string) ([]byte, error) {
	return p.fileAt(p.to, path)
}

func (p *GitHistoryProvider) fileAt(revision, path string) ([]byte, error) {
	if revision == "" {
		return nil, fmt.Errorf("no revision provided for %s", path)
	}

	content, err := p.repo.FileAtRevision(revision, path)
	if errors.Is(err, git.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s at %s", ErrNotFound, path, revision)
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s at %s: %w", path, revision, err)
	}

	return content, nil
}
