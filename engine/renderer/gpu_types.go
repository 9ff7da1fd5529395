package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// HyperUniformSize is the size of the uniform block in bytes.
const HyperUniformSize = 160

// HyperUniform is the GPU-aligned per-draw uniform block. Its layout matches the Hyper struct
// declared by every shader the engine ships, on both backends.
type HyperUniform struct {
	Rotation       [16]float32 // offset   0: world linear part, rotation × scale (mat4x4<f32>)
	ViewProj       [16]float32 // offset  64: 3D camera view-projection (mat4x4<f32>)
	Translation    [4]float32  // offset 128: world translation (vec4<f32>)
	ProjectionMode uint32      // offset 144: projector.Mode (u32)
	Epsilon        float32     // offset 148: projection denominator clamp (f32)
	Distance       float32     // offset 152: projection distance (f32)
	_pad           float32     // offset 156: padding to 160 bytes
}

// NewHyperUniform fills a uniform block from a world transform, the camera and the projector.
//
// Parameters:
//   - world: the draw's world transform
//   - viewProj: the camera view-projection matrix
//   - pr: the projection configuration
//
// Returns:
//   - HyperUniform: the uniform block
func NewHyperUniform(world hypermath.Affine4, viewProj mgl32.Mat4, pr projector.Projector) HyperUniform {
	u := HyperUniform{
		ViewProj:       viewProj,
		ProjectionMode: uint32(pr.Mode),
		Epsilon:        float32(pr.Epsilon),
		Distance:       float32(pr.Distance),
	}
	for i, v := range world.Linear {
		u.Rotation[i] = float32(v)
	}
	u.Translation = [4]float32{
		float32(world.Translation.X),
		float32(world.Translation.Y),
		float32(world.Translation.Z),
		float32(world.Translation.W),
	}
	return u
}

// RotationMatrix returns the uploaded linear part widened to float64.
func (g *HyperUniform) RotationMatrix() mgl64.Mat4 {
	var m mgl64.Mat4
	for i, v := range g.Rotation {
		m[i] = float64(v)
	}
	return m
}

// Size returns the size of the HyperUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *HyperUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the HyperUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *HyperUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Rotation[i]))
	}
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.Translation[i]))
	}
	binary.LittleEndian.PutUint32(buf[144:], g.ProjectionMode)
	binary.LittleEndian.PutUint32(buf[148:], math.Float32bits(g.Epsilon))
	binary.LittleEndian.PutUint32(buf[152:], math.Float32bits(g.Distance))
	binary.LittleEndian.PutUint32(buf[156:], 0) // _pad
	return buf
}
