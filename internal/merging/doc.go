// Package merging applies the manifest merge to many files at once.
//
// For every job it gathers three versions of a manifest:
//  1. Base: the manifest as it was before the incoming change (e.g. at --from).
//  2. Ours: the manifest on disk, possibly carrying local edits.
//  3. Theirs: the manifest after the incoming change (e.g. at --to).
//
// Base and theirs come from a HistoryProvider, ours from the filesystem. The
// merged result replaces ours on disk unless the engine runs dry.
package merging
