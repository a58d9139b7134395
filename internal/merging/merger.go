package merging

import (
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
)

// ManifestMerger merges package manifests with pkg/manifest.
type ManifestMerger struct {
	opts []manifest.Option
}

var _ Merger = (*ManifestMerger)(nil)

func NewManifestMerger(opts ...manifest.Option) *ManifestMerger {
	return &ManifestMerger{opts: opts}
}

func (m *ManifestMerger) Merge(base, ours, theirs []byte) (*MergeResult, error) {
	res, err := manifest.Merge(manifest.Input{Base: base, Ours: ours, Theirs: theirs}, m.opts...)
	if err != nil {
		return nil, err
	}

	return &MergeResult{
		Content:    res.Content,
		Status:     MergeStatus(res.Status),
		Collisions: res.Collisions,
	}, nil
}
