package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMessages(t *testing.T) {
	t.Parallel()

	success := RenderSuccessMessage("merged 2 manifests", "1 file written")
	assert.Contains(t, success, "Merged 2 manifests")
	assert.Contains(t, success, "1 file written")

	warning := RenderWarningMessage("merged 2 manifests", "1 collision resolved in favour of theirs")
	assert.Contains(t, warning, "Merged 2 manifests")
	assert.Contains(t, warning, "1 collision resolved in favour of theirs")
}
