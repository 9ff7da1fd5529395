package hypermath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransform4DIsIdentity(t *testing.T) {
	tr := NewTransform4D(0)
	assert.Equal(t, DefaultRotorEpsilon, tr.Epsilon())
	assert.True(t, tr.Matrix().ApproxEqual(mgl64.Ident4()))
	assert.Equal(t, IdentityAffine(), tr.Affine())
}

func TestSetPlaneAngleIsAbsolute(t *testing.T) {
	tr := NewTransform4D(DefaultRotorEpsilon)
	require.NoError(t, tr.SetPlaneAngle(PlaneXW, 0.3))
	require.NoError(t, tr.SetPlaneAngle(PlaneXW, math.Pi/2))
	assert.Equal(t, math.Pi/2, tr.PlaneAngle(PlaneXW))
	assert.True(t, tr.Rotor().ApproxEqual(FromPlaneAngle(PlaneXW, math.Pi/2), 1e-12))

	err := tr.SetPlaneAngle(Plane(6), 1)
	assert.ErrorIs(t, err, ErrInvalidPlane)
}

func TestPlaneAnglesComposeInCanonicalOrder(t *testing.T) {
	tr := NewTransform4D(DefaultRotorEpsilon)
	require.NoError(t, tr.SetPlaneAngle(PlaneZW, 0.2))
	require.NoError(t, tr.SetPlaneAngle(PlaneXY, 1.1))
	want := Compose(FromPlaneAngle(PlaneZW, 0.2), FromPlaneAngle(PlaneXY, 1.1))
	assert.True(t, tr.Rotor().ApproxEqual(want, 1e-12))
}

func TestSetRotorResetsAngles(t *testing.T) {
	tr := NewTransform4D(DefaultRotorEpsilon)
	require.NoError(t, tr.SetPlaneAngle(PlaneXY, 1))
	tr.SetRotor(Rotor{S: 2})
	assert.Zero(t, tr.PlaneAngle(PlaneXY))
	assert.Equal(t, IdentityRotor(), tr.Rotor())

	tr.SetRotor(Rotor{S: math.NaN()})
	assert.Equal(t, IdentityRotor(), tr.Rotor())
}

func TestRotateAccumulates(t *testing.T) {
	tr := NewTransform4D(DefaultRotorEpsilon)
	for i := 0; i < 100; i++ {
		tr.Rotate(PlaneYZ, 0.01)
	}
	assert.True(t, tr.Rotor().ApproxEqual(FromPlaneAngle(PlaneYZ, 1), 1e-9))
	assert.Less(t, tr.Rotor().Drift(), DefaultRotorEpsilon)
}

func TestAffineAppliesScaleRotateTranslate(t *testing.T) {
	tr := NewTransform4D(DefaultRotorEpsilon)
	require.NoError(t, tr.SetPlaneAngle(PlaneXY, math.Pi/2))
	tr.SetScale(V4(2, 1, 1, 1))
	tr.SetTranslation(V4(0, 0, 0, 5))

	got := tr.Affine().Apply(V4(1, 0, 0, 0))
	assert.InDelta(t, 0, got.Sub(V4(0, 2, 0, 5)).Len(), 1e-12)

	tr.SetScale(V4(math.NaN(), 1, 1, 1))
	assert.Equal(t, Splat(1), tr.Scale())
	tr.SetTranslation(V4(math.Inf(-1), 0, 0, 0))
	assert.Equal(t, Vec4{}, tr.Translation())
}

func TestAffineCompose(t *testing.T) {
	parent := NewTransform4D(DefaultRotorEpsilon)
	parent.SetTranslation(V4(1, 0, 0, 0))
	require.NoError(t, parent.SetPlaneAngle(PlaneXW, math.Pi/2))
	child := NewTransform4D(DefaultRotorEpsilon)
	child.SetTranslation(V4(1, 0, 0, 0))

	world := parent.Affine().Compose(child.Affine())
	p := V4(0, 1, 0, 0)
	direct := parent.Affine().Apply(child.Affine().Apply(p))
	assert.InDelta(t, 0, world.Apply(p).Sub(direct).Len(), 1e-12)
	assert.InDelta(t, 0, world.Translation.Sub(V4(1, 0, 0, 1)).Len(), 1e-12)
}

func TestMat5(t *testing.T) {
	tr := NewTransform4D(DefaultRotorEpsilon)
	tr.SetTranslation(V4(1, 2, 3, 4))
	tr.SetScale(V4(2, 3, 4, 5))
	m := tr.Mat5()
	assert.Equal(t, [25]float64{
		2, 0, 0, 0, 0,
		0, 3, 0, 0, 0,
		0, 0, 4, 0, 0,
		0, 0, 0, 5, 0,
		1, 2, 3, 4, 1,
	}, m)
}

func TestParsePlane(t *testing.T) {
	p, err := ParsePlane(" zw ")
	require.NoError(t, err)
	assert.Equal(t, PlaneZW, p)

	_, err = ParsePlane("xq")
	assert.ErrorIs(t, err, ErrInvalidPlane)

	var q Plane
	require.NoError(t, q.UnmarshalText([]byte("yw")))
	text, err := q.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "YW", string(text))
}
