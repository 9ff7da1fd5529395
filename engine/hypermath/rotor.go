package hypermath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultRotorEpsilon is the default tolerance on |norm - 1| a rotor may drift before it is
// renormalized by setters, and the orthogonality tolerance of matrices built from rotors.
const DefaultRotorEpsilon = 1e-5

// degenerateNorm is the norm below which a rotor carries no usable orientation and is reset
// to the identity instead of being rescaled.
const degenerateNorm = 1e-12

// Rotor is a rotation in 4-space: the scalar, six bivector and pseudoscalar components of an
// even multivector. Rotors are values; every operation returns a new Rotor.
type Rotor struct {
	S                            float64
	E12, E13, E14, E23, E24, E34 float64
	E1234                        float64
}

// IdentityRotor returns the rotor that leaves every vector unchanged.
func IdentityRotor() Rotor {
	return Rotor{S: 1}
}

// FromPlaneAngle builds the single-plane rotor rotating by angle radians in plane p.
// The scalar is cos(angle/2) and the plane's bivector is -sin(angle/2), which rotates the
// plane's first axis toward its second for positive angles. Invalid planes yield the identity.
//
// Parameters:
//   - p: the rotation plane
//   - angle: the rotation angle in radians
//
// Returns:
//   - Rotor: the unit rotor for the rotation
func FromPlaneAngle(p Plane, angle float64) Rotor {
	if !p.Valid() {
		return IdentityRotor()
	}
	s, c := math.Sincos(angle / 2)
	r := Rotor{S: c}
	r.setBivector(p, -s)
	return r
}

// Compose returns the geometric product a·b, renormalized. The result applies b first and
// then a. Renormalization is part of the operation so drift never accumulates across calls.
//
// Parameters:
//   - a: the rotation applied second
//   - b: the rotation applied first
//
// Returns:
//   - Rotor: the renormalized composition
func Compose(a, b Rotor) Rotor {
	return rotorFromMultivector(a.multivector().mul(b.multivector())).Renormalize()
}

// Then returns the rotation r followed by next. Equivalent to Compose(next, r).
func (r Rotor) Then(next Rotor) Rotor {
	return Compose(next, r)
}

// Integrate advances r by a rotation of rate*dt radians in plane p, applied after r.
//
// Parameters:
//   - p: the rotation plane
//   - rate: angular velocity in radians per second
//   - dt: elapsed time in seconds
//
// Returns:
//   - Rotor: the advanced, renormalized rotor
func (r Rotor) Integrate(p Plane, rate, dt float64) Rotor {
	return Compose(FromPlaneAngle(p, rate*dt), r)
}

// Norm returns sqrt of the sum of squared components, the scalar part of r·r̃.
func (r Rotor) Norm() float64 {
	sum := 0.0
	for _, c := range r.components() {
		sum += c * c
	}
	return math.Sqrt(sum)
}

// Drift returns how far the norm has wandered from 1. Non-finite rotors report +Inf.
func (r Rotor) Drift() float64 {
	n := r.Norm()
	if !isFinite(n) {
		return math.Inf(1)
	}
	return math.Abs(n - 1)
}

// Renormalize rescales all eight components so the norm returns to 1. Rotors whose norm is
// non-finite or vanishingly small cannot be rescaled and are clamped to the identity, so a
// diverged rotor never stops rotation from being applied.
func (r Rotor) Renormalize() Rotor {
	n := r.Norm()
	if !isFinite(n) || n < degenerateNorm {
		return IdentityRotor()
	}
	c := r.components()
	for i := range c {
		c[i] /= n
	}
	return rotorFromComponents(c)
}

// Reverse returns the reversed rotor, which is the inverse rotation for unit rotors.
func (r Rotor) Reverse() Rotor {
	return Rotor{
		S:   r.S,
		E12: -r.E12, E13: -r.E13, E14: -r.E14,
		E23: -r.E23, E24: -r.E24, E34: -r.E34,
		E1234: r.E1234,
	}
}

// Apply rotates v by r using the sandwich product r·v·r̃.
func (r Rotor) Apply(v Vec4) Vec4 {
	m := r.multivector()
	return m.mul(vectorBlade(v)).mul(m.reverse()).vectorPart()
}

// Matrix converts r into the orthogonal 4×4 rotation matrix whose columns are the images of
// the basis vectors. This is the only form in which rotations are handed to renderers.
//
// Returns:
//   - mgl64.Mat4: the column-major rotation matrix
func (r Rotor) Matrix() mgl64.Mat4 {
	m := r.multivector()
	rev := m.reverse()
	var out mgl64.Mat4
	for col := 0; col < 4; col++ {
		var basis Vec4
		switch col {
		case 0:
			basis.X = 1
		case 1:
			basis.Y = 1
		case 2:
			basis.Z = 1
		case 3:
			basis.W = 1
		}
		img := m.mul(vectorBlade(basis)).mul(rev).vectorPart()
		out[col*4+0] = img.X
		out[col*4+1] = img.Y
		out[col*4+2] = img.Z
		out[col*4+3] = img.W
	}
	return out
}

// Bivector returns the component of r belonging to plane p.
func (r Rotor) Bivector(p Plane) float64 {
	switch p {
	case PlaneXY:
		return r.E12
	case PlaneXZ:
		return r.E13
	case PlaneYZ:
		return r.E23
	case PlaneXW:
		return r.E14
	case PlaneYW:
		return r.E24
	case PlaneZW:
		return r.E34
	}
	return 0
}

// ApproxEqual reports whether every component of r and o differs by at most eps.
func (r Rotor) ApproxEqual(o Rotor, eps float64) bool {
	a, b := r.components(), o.components()
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// IsFinite reports whether no component is NaN or infinite.
func (r Rotor) IsFinite() bool {
	for _, c := range r.components() {
		if !isFinite(c) {
			return false
		}
	}
	return true
}

func (r *Rotor) setBivector(p Plane, v float64) {
	switch p {
	case PlaneXY:
		r.E12 = v
	case PlaneXZ:
		r.E13 = v
	case PlaneYZ:
		r.E23 = v
	case PlaneXW:
		r.E14 = v
	case PlaneYW:
		r.E24 = v
	case PlaneZW:
		r.E34 = v
	}
}

func (r Rotor) components() [8]float64 {
	return [8]float64{r.S, r.E12, r.E13, r.E14, r.E23, r.E24, r.E34, r.E1234}
}

func rotorFromComponents(c [8]float64) Rotor {
	return Rotor{S: c[0], E12: c[1], E13: c[2], E14: c[3], E23: c[4], E24: c[5], E34: c[6], E1234: c[7]}
}

func (r Rotor) multivector() multivector {
	var m multivector
	for i, c := range r.components() {
		m[rotorBlades[i]] = c
	}
	return m
}

// rotorFromMultivector keeps the even part of m; odd blades never arise from rotor products.
func rotorFromMultivector(m multivector) Rotor {
	var c [8]float64
	for i, blade := range rotorBlades {
		c[i] = m[blade]
	}
	return rotorFromComponents(c)
}

// IsOrthogonal reports whether m·mᵀ equals the identity within eps.
//
// Parameters:
//   - m: the matrix to check
//   - eps: the per-element tolerance
//
// Returns:
//   - bool: true if m is orthogonal within eps
func IsOrthogonal(m mgl64.Mat4, eps float64) bool {
	return m.Mul4(m.Transpose()).ApproxEqualThreshold(mgl64.Ident4(), eps)
}
