// Package renderer defines the contract every rendering backend implements and the frame
// data handed to backends. Backends live in sub-packages and are selected by BackendType.
package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/go-gl/mathgl/mgl32"
)

// Renderer is the capability set shared by all backends. Callers never depend on
// backend-specific operations.
type Renderer interface {
	// SetActive starts or stops the backend's per-frame work. Activation acquires and verifies
	// whatever the backend needs to draw; deactivation releases nothing. Calling it with the
	// current state is a no-op.
	//
	// Parameters:
	//   - active: the requested state
	//
	// Returns:
	//   - error: an error if the backend could not be brought into the requested state
	SetActive(active bool) error

	// RenderFrame renders exactly one frame from the current frame source. It never starts a
	// loop; cadence belongs to the caller.
	//
	// Returns:
	//   - error: ErrNotActive if called while inactive, or the backend failure
	RenderFrame() error

	// Resize updates the viewport and back-buffer size. A zero dimension is accepted and
	// suspends drawing until a non-zero size arrives.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: ErrInvalidSize for negative dimensions
	Resize(width, height int) error
}

// FrameSource supplies the scene state for one frame.
type FrameSource interface {
	// Frame builds the data for the next frame. Matrices in the returned frame are already
	// recomputed; the renderer never reads the scene graph directly.
	//
	// Returns:
	//   - *Frame: the frame data
	//   - error: an error if the frame could not be built
	Frame() (*Frame, error)
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() (*Frame, error)

// Frame implements FrameSource.
func (f FrameSourceFunc) Frame() (*Frame, error) { return f() }

// Draw is one mesh instance of a frame.
type Draw struct {
	// Label names the draw for diagnostics.
	Label string

	// Uniform is the per-draw uniform block uploaded to shaders.
	Uniform HyperUniform

	// Vertices are the raw object-space 4D vertices, for backends that transform on the GPU.
	Vertices []hypermath.Vec4

	// Indices is the line-list index buffer into Vertices.
	Indices []uint32

	// FirstPoint and PointCount locate this draw's vertices inside Frame.Points.
	FirstPoint int
	PointCount int
}

// Frame is everything a backend needs to draw one frame.
type Frame struct {
	Index    uint64
	Mode     projector.Mode
	ViewProj mgl32.Mat4

	// Draws are the visible mesh instances in scene order.
	Draws []Draw

	// Points is the CPU-projected 3D point stream of every draw, world space.
	Points []mgl32.Vec3
}

// DrawPoints returns the projected points of draw i.
func (f *Frame) DrawPoints(i int) []mgl32.Vec3 {
	d := f.Draws[i]
	return f.Points[d.FirstPoint : d.FirstPoint+d.PointCount]
}

// Validate checks that every draw's indices and point range are in bounds.
//
// Returns:
//   - error: a description of the first malformed draw
func (f *Frame) Validate() error {
	for i, d := range f.Draws {
		if d.FirstPoint < 0 || d.PointCount < 0 || d.FirstPoint+d.PointCount > len(f.Points) {
			return fmt.Errorf("draw %d (%s): point range [%d,%d) outside %d points", i, d.Label, d.FirstPoint, d.FirstPoint+d.PointCount, len(f.Points))
		}
		if len(d.Indices)%2 != 0 {
			return fmt.Errorf("draw %d (%s): odd line index count %d", i, d.Label, len(d.Indices))
		}
		for _, idx := range d.Indices {
			if int(idx) >= len(d.Vertices) || int(idx) >= d.PointCount {
				return fmt.Errorf("draw %d (%s): index %d out of range", i, d.Label, idx)
			}
		}
	}
	return nil
}

// CheckSize validates viewport dimensions.
//
// Parameters:
//   - width, height: the requested size
//
// Returns:
//   - error: ErrInvalidSize wrapped with the offending size, nil otherwise
func CheckSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return nil
}
