// Package hypermath contains the 4D value types used throughout the engine: vectors, rotors
// (the even subalgebra of the geometric algebra of 4-space), rotation planes and transforms.
// Everything in this package is a plain value type; matrices handed to the renderer are
// produced as column-major mgl64 matrices.
package hypermath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec4 is a point or direction in 4-space.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// Splat returns a Vec4 with every component set to s.
func Splat(s float64) Vec4 {
	return Vec4{s, s, s, s}
}

// Vec4FromMgl converts an mgl64.Vec4 into a Vec4.
func Vec4FromMgl(v mgl64.Vec4) Vec4 {
	return Vec4{v[0], v[1], v[2], v[3]}
}

// Mgl returns the vector as an mgl64.Vec4 for matrix multiplication.
func (v Vec4) Mgl() mgl64.Vec4 {
	return mgl64.Vec4{v.X, v.Y, v.Z, v.W}
}

// Component returns the i-th component (0=X … 3=W). Out of range indices return 0.
func (v Vec4) Component(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	case 3:
		return v.W
	}
	return 0
}

// Add returns the vector sum.
func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W}
}

// Sub returns the vector difference.
func (v Vec4) Sub(o Vec4) Vec4 {
	return Vec4{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.W - o.W}
}

// Scale returns the scalar product.
func (v Vec4) Scale(s float64) Vec4 {
	return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}

// Mul returns the component-wise product.
func (v Vec4) Mul(o Vec4) Vec4 {
	return Vec4{v.X * o.X, v.Y * o.Y, v.Z * o.Z, v.W * o.W}
}

// Dot returns the dot product.
func (v Vec4) Dot(o Vec4) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z + v.W*o.W
}

// Len returns the Euclidean length.
func (v Vec4) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec4) Normalize() Vec4 {
	l := v.Len()
	if l == 0 {
		return Vec4{}
	}
	return v.Scale(1 / l)
}

// Lerp returns the linear interpolation between v and o.
func (v Vec4) Lerp(o Vec4, t float64) Vec4 {
	return Vec4{
		v.X + (o.X-v.X)*t,
		v.Y + (o.Y-v.Y)*t,
		v.Z + (o.Z-v.Z)*t,
		v.W + (o.W-v.W)*t,
	}
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vec4) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z) && isFinite(v.W)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
