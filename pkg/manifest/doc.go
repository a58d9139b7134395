// Package manifest merges package manifests (package.json style documents)
// given a common ancestor (base), a local edit (ours) and an incoming edit
// (theirs).
//
// Dependency fields are merged by name: the base to theirs delta of each field
// is replayed over ours. Every other key is merged by computing an RFC 6902
// edit script from base to theirs and applying it to ours. In both cases
// theirs wins when the two sides changed the same location differently; such
// locations are reported as collisions but never marked in the output.
//
// Documents keep their key order end to end. Dependency fields are always
// rendered with their names sorted.
package manifest
