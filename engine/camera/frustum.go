package camera

import "github.com/go-gl/mathgl/mgl32"

// Frustum planes in Left, Right, Bottom, Top, Near, Far order. Each plane stores its unit
// normal in xyz and its offset in w; the positive half-space is inside.
type Frustum [6]mgl32.Vec4

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts the clip planes of a view-projection matrix with the Gribb/Hartmann
// row method.
//
// Parameters:
//   - viewProj: projection × view
//
// Returns:
//   - Frustum: the normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	f := Frustum{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r3.Add(r2),
		FrustumFar:    r3.Sub(r2),
	}
	for i, p := range f {
		if l := p.Vec3().Len(); l > 0 {
			f[i] = p.Mul(1 / l)
		}
	}
	return f
}

// IntersectsSphere reports whether any part of the sphere lies inside the frustum.
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f {
		if p.Vec3().Dot(center)+p.W() < -radius {
			return false
		}
	}
	return true
}

// BoundingSphere returns the centroid of points and the largest distance from it.
func BoundingSphere(points []mgl32.Vec3) (center mgl32.Vec3, radius float32) {
	if len(points) == 0 {
		return center, 0
	}
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Mul(1 / float32(len(points)))
	for _, p := range points {
		radius = max(radius, p.Sub(center).Len())
	}
	return center, radius
}
