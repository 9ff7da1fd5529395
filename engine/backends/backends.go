// Package backends resolves a renderer.BackendType to a concrete backend at construction time.
package backends

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/raster"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurface is returned when the pipeline backend is requested without a surface.
var ErrNoSurface = errors.New("backends: webgpu backend requires a surface")

// New constructs the backend named by kind. The raster backend ignores surface.
//
// Parameters:
//   - kind: the backend to build
//   - surface: the window surface, required for BackendTypeWebGPU
//   - opts: the shared backend options
//
// Returns:
//   - renderer.Renderer: the inactive backend
//   - error: renderer.ErrUnknownBackend, ErrNoSurface, or a device acquisition error
func New(kind renderer.BackendType, surface *wgpu.SurfaceDescriptor, opts ...renderer.RendererBuilderOption) (renderer.Renderer, error) {
	switch kind {
	case renderer.BackendTypeWebGL:
		return raster.New(opts...), nil
	case renderer.BackendTypeWebGPU:
		if surface == nil {
			return nil, ErrNoSurface
		}
		r, err := gpu.New(surface, opts...)
		if err != nil {
			return nil, fmt.Errorf("backends: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %v", renderer.ErrUnknownBackend, kind)
	}
}
