package merging

import (
	"errors"
	"os"

	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
)

// MergeStatus represents the outcome of a file merge operation.
type MergeStatus string

const (
	MergeStatusClean       MergeStatus = MergeStatus(manifest.StatusClean)
	MergeStatusFastForward MergeStatus = MergeStatus(manifest.StatusFastForward) // Used when Ours == Base
	MergeStatusUnchanged   MergeStatus = MergeStatus(manifest.StatusUnchanged)   // Used when Theirs == Base
	MergeStatusResolved    MergeStatus = MergeStatus(manifest.StatusResolved)    // Collisions resolved in favour of theirs
	MergeStatusCreated     MergeStatus = "CREATED"                               // No ours file on disk
	MergeStatusSkipped     MergeStatus = "SKIPPED"                               // Theirs deleted the manifest
	MergeStatusFailed      MergeStatus = "FAILED"
)

// ErrNotFound is returned by a HistoryProvider when the requested version of
// a file does not exist.
var ErrNotFound = errors.New("file not found")

// Job names one manifest to merge, relative to the engine root using forward
// slashes.
type Job struct {
	Path string
}

// MergeResult holds the result of merging a single file.
type MergeResult struct {
	Path       string
	Content    []byte
	Status     MergeStatus
	Collisions []manifest.Collision
	Written    bool
	Error      error
}

// HistoryProvider abstracts the retrieval of historical file versions.
type HistoryProvider interface {
	// Base retrieves the content of path before the incoming change.
	Base(path string) ([]byte, error)
	// Theirs retrieves the content of path after the incoming change.
	Theirs(path string) ([]byte, error)
}

// Merger abstracts the algorithm for 3-way merging.
type Merger interface {
	// Merge replays Theirs-Base onto Ours.
	Merge(base, ours, theirs []byte) (*MergeResult, error)
}

// FileSystem is the subset of file operations the engine needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
}
