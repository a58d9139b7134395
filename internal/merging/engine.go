package merging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/speakeasy-api/pkgmerge/internal/utils"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

var emptyManifest = []byte("{}")

type Engine struct {
	history HistoryProvider
	merger  Merger
	fs      FileSystem

	// Root is the directory job paths are relative to.
	Root string
	// DryRun computes results without writing them.
	DryRun bool
	// Concurrency bounds the number of files merged at once.
	Concurrency int
}

func NewEngine(history HistoryProvider, merger Merger, fsys FileSystem) *Engine {
	return &Engine{
		history:     history,
		merger:      merger,
		fs:          fsys,
		Root:        ".",
		Concurrency: DefaultConcurrency,
	}
}

// ProcessBatch merges every job and returns the results in job order. A failed
// job does not stop the others; the first failure in job order is returned
// once all jobs are done.
func (e *Engine) ProcessBatch(ctx context.Context, jobs []Job) ([]MergeResult, error) {
	results := make([]MergeResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Concurrency, 1))

	for i, job := range jobs {
		g.Go(func() error {
			results[i] = e.processSingle(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Error != nil {
			return results, fmt.Errorf("%s: %w", r.Path, r.Error)
		}
	}

	return results, nil
}

func (e *Engine) processSingle(ctx context.Context, job Job) MergeResult {
	res := MergeResult{
		Path: job.Path,
	}

	fail := func(err error) MergeResult {
		res.Status = MergeStatusFailed
		res.Error = err
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// 1. Retrieve Theirs
	theirsContent, err := e.history.Theirs(job.Path)
	if errors.Is(err, ErrNotFound) {
		res.Status = MergeStatusSkipped
		return res
	} else if err != nil {
		return fail(err)
	}

	// 2. Retrieve Base, a manifest that did not exist yet is empty
	baseContent, err := e.history.Base(job.Path)
	if errors.Is(err, ErrNotFound) {
		baseContent = emptyManifest
	} else if err != nil {
		return fail(err)
	}

	// 3. Read Ours from disk
	diskPath := e.diskPath(job.Path)
	created := false
	oursContent, err := e.fs.ReadFile(diskPath)
	if errors.Is(err, os.ErrNotExist) {
		baseContent, oursContent, created = emptyManifest, emptyManifest, true
	} else if err != nil {
		return fail(fmt.Errorf("failed to read current file: %w", err))
	}

	// 4. Perform Merge
	mergeRes, err := e.merger.Merge(baseContent, oursContent, theirsContent)
	if err != nil {
		return fail(fmt.Errorf("merge failed: %w", err))
	}

	res.Content = mergeRes.Content
	res.Status = mergeRes.Status
	res.Collisions = mergeRes.Collisions
	if created {
		res.Status = MergeStatusCreated
	}

	if e.DryRun || (!created && string(res.Content) == string(oursContent)) {
		return res
	}

	// 5. Write Result to disk, keeping the existing permissions
	if err := e.fs.WriteFile(diskPath, res.Content, utils.FileMode(diskPath, 0o644)); err != nil {
		return fail(fmt.Errorf("failed to write merged file: %w", err))
	}
	res.Written = true

	return res
}

func (e *Engine) diskPath(path string) string {
	return filepath.Join(e.Root, filepath.FromSlash(path))
}
