package git

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/samber/lo"
)

// ErrFileNotFound is returned when a path does not exist at a revision.
var ErrFileNotFound = errors.New("git: file not found at revision")

// GetBlob retrieves the content of a blob by its SHA-1 hash.
func (r *Repository) GetBlob(hash string) ([]byte, error) {
	if r.IsNil() {
		return nil, ErrNoRepository
	}

	// Strip "sha1:" prefix if present (common in some systems)
	hash = strings.TrimPrefix(hash, "sha1:")

	blob, err := r.repo.BlobObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to find blob %s: %w", hash, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob reader: %w", err)
	}
	defer reader.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return buf.Bytes(), nil
}

// ResolveRevision resolves a revision (branch, tag, short hash, HEAD~1) to a commit hash.
func (r *Repository) ResolveRevision(revision string) (string, error) {
	if r.IsNil() {
		return "", ErrNoRepository
	}

	h, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %s: %w", revision, err)
	}
	return h.String(), nil
}

// FileAtRevision returns the content of a slash separated, repository relative
// path as committed at revision.
func (r *Repository) FileAtRevision(revision, filePath string) ([]byte, error) {
	tree, err := r.treeAt(revision)
	if err != nil {
		return nil, err
	}

	entry, err := tree.FindEntry(filePath)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, fmt.Errorf("%w: %s@%s", ErrFileNotFound, filePath, revision)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up %s at %s: %w", filePath, revision, err)
	}
	if !entry.Mode.IsFile() {
		return nil, fmt.Errorf("%w: %s@%s is not a file", ErrFileNotFound, filePath, revision)
	}

	return r.GetBlob(entry.Hash.String())
}

// ChangedFiles lists the paths that differ between two revisions and whose
// base name is one of names. The result is sorted.
func (r *Repository) ChangedFiles(from, to string, names ...string) ([]string, error) {
	fromTree, err := r.treeAt(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.treeAt(to)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", from, to, err)
	}

	var paths []string
	for _, change := range changes {
		for _, p := range []string{change.From.Name, change.To.Name} {
			if p != "" && (len(names) == 0 || slices.Contains(names, path.Base(p))) {
				paths = append(paths, p)
			}
		}
	}

	paths = lo.Uniq(paths)
	slices.Sort(paths)

	return paths, nil
}

func (r *Repository) treeAt(revision string) (*object.Tree, error) {
	hash, err := r.ResolveRevision(revision)
	if err != nil {
		return nil, err
	}

	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", revision, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", revision, err)
	}

	return tree, nil
}
