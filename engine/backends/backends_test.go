package backends

import (
	"io"
	"testing"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/raster"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger := renderer.WithLogger(log.New(io.Discard))

	r, err := New(renderer.BackendTypeWebGL, nil, logger)
	require.NoError(t, err)
	_, ok := r.(raster.Renderer)
	assert.True(t, ok)

	_, err = New(renderer.BackendTypeWebGPU, nil, logger)
	assert.ErrorIs(t, err, ErrNoSurface)

	_, err = New(renderer.BackendType(9), nil, logger)
	assert.ErrorIs(t, err, renderer.ErrUnknownBackend)
}
