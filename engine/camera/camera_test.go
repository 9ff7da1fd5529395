package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.InDelta(t, math.Pi/4, c.Fov(), 1e-6)
	assert.Equal(t, float32(1), c.Aspect())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	require.NotNil(t, c.Controller())
	assertVec3(t, mgl32.Vec3{0, 0, 4}, c.Controller().Position())

	// The target lands 4 units in front of the eye in view space.
	p := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assertVec3(t, mgl32.Vec3{0, 0, -4}, p.Vec3())

	assert.True(t, c.ViewProjectionMatrix().ApproxEqualThreshold(c.ProjectionMatrix().Mul4(c.ViewMatrix()), 1e-6))
}

func TestViewProjectionCentersTarget(t *testing.T) {
	oc := NewOrbitController(WithTarget(mgl32.Vec3{1, 2, 3}), WithAngles(0.7, 0.3))
	c := NewCamera(WithController(oc), WithViewport(800, 600))

	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	require.Greater(t, clip.W(), float32(0))
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)
}

func TestSetViewport(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetViewport(800, 600)
	assert.InDelta(t, 800.0/600.0, c.Aspect(), 1e-6)
	assert.False(t, before.ApproxEqualThreshold(c.ProjectionMatrix(), 1e-6))

	c.SetViewport(0, 600)
	assert.InDelta(t, 800.0/600.0, c.Aspect(), 1e-6, "zero width keeps the previous aspect")

	c.SetAspect(-1)
	assert.InDelta(t, 800.0/600.0, c.Aspect(), 1e-6)
}

func TestUpdateFollowsController(t *testing.T) {
	c := NewCamera()
	view := c.ViewMatrix()

	c.Controller().Orbit(math.Pi/2, 0)
	assert.True(t, view.ApproxEqualThreshold(c.ViewMatrix(), 1e-6), "matrices change only on Update")

	c.Update()
	assertVec3(t, mgl32.Vec3{4, 0, 0}, c.Controller().Position())
	p := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assertVec3(t, mgl32.Vec3{0, 0, -4}, p.Vec3())
}

func TestOrbitClamps(t *testing.T) {
	oc := NewOrbitController(WithRadiusBounds(1, 10), WithElevationBounds(-0.5, 0.5), WithZoomSpeed(1))

	oc.Orbit(0, 2)
	assert.Equal(t, float32(0.5), oc.Elevation())
	oc.Orbit(0, -5)
	assert.Equal(t, float32(-0.5), oc.Elevation())

	oc.Zoom(100)
	assert.Equal(t, float32(1), oc.Radius())
	oc.Zoom(-100)
	assert.Equal(t, float32(10), oc.Radius())

	oc.SetRadius(3)
	assert.InDelta(t, 3, oc.Position().Sub(oc.Target()).Len(), 1e-5)
}

func TestPanMovesEyeAndTarget(t *testing.T) {
	oc := NewOrbitController()

	oc.Pan(1, 2)
	assertVec3(t, mgl32.Vec3{1, 2, 0}, oc.Target())
	assertVec3(t, mgl32.Vec3{1, 2, 4}, oc.Position())

	oc.SetTarget(mgl32.Vec3{})
	assertVec3(t, mgl32.Vec3{0, 0, 4}, oc.Position())
}

func TestFrustumCulling(t *testing.T) {
	c := NewCamera(WithViewport(800, 600))
	f := ExtractFrustum(c.ViewProjectionMatrix())

	for i, p := range f {
		assert.InDelta(t, 1, p.Vec3().Len(), 1e-5, "plane %d is normalized", i)
	}

	assert.True(t, f.IntersectsSphere(mgl32.Vec3{}, 1), "target is visible")
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 10}, 1), "behind the eye")
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{50, 0, 0}, 1), "far to the right")
	assert.True(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 200}, 197), "a sphere enclosing the eye is visible")
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, -500}, 1), "beyond the far plane")
}

func TestBoundingSphere(t *testing.T) {
	center, radius := BoundingSphere([]mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 3, 0}, {0, -3, 0}})
	assertVec3(t, mgl32.Vec3{}, center)
	assert.InDelta(t, 3, radius, 1e-6)

	_, radius = BoundingSphere(nil)
	assert.Zero(t, radius)
}
