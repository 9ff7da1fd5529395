package shader_test

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
)

func TestHyperContractMatchesUniform(t *testing.T) {
	var u renderer.HyperUniform
	offsets := map[string]uintptr{
		"rotation":        unsafe.Offsetof(u.Rotation),
		"view_proj":       unsafe.Offsetof(u.ViewProj),
		"translation":     unsafe.Offsetof(u.Translation),
		"projection_mode": unsafe.Offsetof(u.ProjectionMode),
		"epsilon":         unsafe.Offsetof(u.Epsilon),
		"distance":        unsafe.Offsetof(u.Distance),
	}
	assert.Equal(t, uint64(renderer.HyperUniformSize), shader.HyperContract.Size)
	assert.Len(t, shader.HyperContract.Fields, len(offsets))
	for _, f := range shader.HyperContract.Fields {
		off, ok := offsets[f.Name]
		if assert.True(t, ok, f.Name) {
			assert.Equal(t, uint64(off), f.Offset, f.Name)
		}
	}
}
