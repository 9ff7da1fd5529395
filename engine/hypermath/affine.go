package hypermath

import "github.com/go-gl/mathgl/mgl64"

// Affine4 is an affine map of 4-space: a linear part followed by a translation. It is the
// 4D counterpart of a 4×4 homogeneous model matrix and is what scene nodes cache as their
// world transform.
type Affine4 struct {
	Linear      mgl64.Mat4
	Translation Vec4
}

// IdentityAffine returns the affine map that leaves every point unchanged.
func IdentityAffine() Affine4 {
	return Affine4{Linear: mgl64.Ident4()}
}

// Compose returns a∘b: b is applied first, then a.
func (a Affine4) Compose(b Affine4) Affine4 {
	return Affine4{
		Linear:      a.Linear.Mul4(b.Linear),
		Translation: Vec4FromMgl(a.Linear.Mul4x1(b.Translation.Mgl())).Add(a.Translation),
	}
}

// Apply maps the point p.
func (a Affine4) Apply(p Vec4) Vec4 {
	return Vec4FromMgl(a.Linear.Mul4x1(p.Mgl())).Add(a.Translation)
}

// ApplyVector maps the direction v, ignoring translation.
func (a Affine4) ApplyVector(v Vec4) Vec4 {
	return Vec4FromMgl(a.Linear.Mul4x1(v.Mgl()))
}

// Mat5 returns the 5×5 homogeneous form of the map in column-major order. The upper-left
// 4×4 block is the linear part, the fifth column carries the translation and the final
// element is 1.
func (a Affine4) Mat5() [25]float64 {
	var m [25]float64
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			m[col*5+row] = a.Linear.At(row, col)
		}
	}
	m[20] = a.Translation.X
	m[21] = a.Translation.Y
	m[22] = a.Translation.Z
	m[23] = a.Translation.W
	m[24] = 1
	return m
}

// ApproxEqual reports whether both parts match within eps.
func (a Affine4) ApproxEqual(b Affine4, eps float64) bool {
	if !a.Linear.ApproxEqualThreshold(b.Linear, eps) {
		return false
	}
	return a.Translation.Sub(b.Translation).Len() <= eps
}
