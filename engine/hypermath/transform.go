package hypermath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform4D is the local transform of a 4D object: an orientation, a per-axis scale and a
// translation. The orientation is a base rotor composed with six per-plane angles; the
// angles are applied XY, XZ, YZ, XW, YW, ZW in that order after the base rotor.
//
// A Transform4D is mutated only through its setters. The zero value is not usable; call
// NewTransform4D.
type Transform4D struct {
	base        Rotor
	angles      [planeCount]float64
	rotor       Rotor
	scale       Vec4
	translation Vec4
	epsilon     float64
}

// NewTransform4D creates the identity transform with unit scale.
//
// Parameters:
//   - epsilon: the rotor drift tolerance; non-positive values use DefaultRotorEpsilon
//
// Returns:
//   - Transform4D: the identity transform
func NewTransform4D(epsilon float64) Transform4D {
	if epsilon <= 0 || !isFinite(epsilon) {
		epsilon = DefaultRotorEpsilon
	}
	return Transform4D{
		base:    IdentityRotor(),
		rotor:   IdentityRotor(),
		scale:   Splat(1),
		epsilon: epsilon,
	}
}

// SetPlaneAngle sets the absolute rotation angle for plane p. Angles of different planes are
// independent; setting one leaves the others and the base rotor untouched.
func (t *Transform4D) SetPlaneAngle(p Plane, angle float64) error {
	if !p.Valid() {
		return fmt.Errorf("set plane angle: %w", ErrInvalidPlane)
	}
	if !isFinite(angle) {
		angle = 0
	}
	t.angles[p] = angle
	t.recompose()
	return nil
}

// PlaneAngle returns the absolute angle currently set for plane p.
func (t Transform4D) PlaneAngle(p Plane) float64 {
	if !p.Valid() {
		return 0
	}
	return t.angles[p]
}

// SetRotor replaces the orientation with r and resets every plane angle to zero. A rotor
// whose norm has drifted past the transform's epsilon is renormalized first.
func (t *Transform4D) SetRotor(r Rotor) {
	if r.Drift() > t.epsilon {
		r = r.Renormalize()
	}
	t.base = r
	t.angles = [planeCount]float64{}
	t.recompose()
}

// Rotate applies an incremental rotation of delta radians in plane p on top of the current
// orientation. Plane angles are folded into the base rotor so repeated calls accumulate.
func (t *Transform4D) Rotate(p Plane, delta float64) {
	if !p.Valid() || !isFinite(delta) {
		return
	}
	t.base = Compose(FromPlaneAngle(p, delta), t.rotor)
	t.angles = [planeCount]float64{}
	t.recompose()
}

// SetScale sets the per-axis scale. Non-finite components are replaced with 1.
func (t *Transform4D) SetScale(s Vec4) {
	if !s.IsFinite() {
		s = Splat(1)
	}
	t.scale = s
}

// SetTranslation sets the translation. Non-finite input resets it to the origin.
func (t *Transform4D) SetTranslation(v Vec4) {
	if !v.IsFinite() {
		v = Vec4{}
	}
	t.translation = v
}

// Rotor returns the composite orientation.
func (t Transform4D) Rotor() Rotor { return t.rotor }

// Scale returns the per-axis scale.
func (t Transform4D) Scale() Vec4 { return t.scale }

// Translation returns the translation.
func (t Transform4D) Translation() Vec4 { return t.translation }

// Epsilon returns the rotor drift tolerance.
func (t Transform4D) Epsilon() float64 { return t.epsilon }

// RotationMatrix returns the orthogonal rotation matrix of the composite rotor.
func (t Transform4D) RotationMatrix() mgl64.Mat4 {
	return t.rotor.Matrix()
}

// Matrix returns the linear part rotation × scale, the matrix uploaded to shaders.
func (t Transform4D) Matrix() mgl64.Mat4 {
	return t.rotor.Matrix().Mul4(mgl64.Diag4(t.scale.Mgl()))
}

// Affine returns the full local transform: scale, then rotate, then translate.
func (t Transform4D) Affine() Affine4 {
	return Affine4{Linear: t.Matrix(), Translation: t.translation}
}

// Mat5 returns the 5×5 homogeneous matrix of the transform in column-major order.
func (t Transform4D) Mat5() [25]float64 {
	return t.Affine().Mat5()
}

func (t *Transform4D) recompose() {
	r := t.base
	for _, p := range Planes() {
		a := t.angles[p]
		if a == 0 {
			continue
		}
		r = Compose(FromPlaneAngle(p, a), r)
	}
	t.rotor = r.Renormalize()
}
