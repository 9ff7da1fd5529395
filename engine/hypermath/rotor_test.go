package hypermath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basis(i int) Vec4 {
	var v Vec4
	switch i {
	case 0:
		v.X = 1
	case 1:
		v.Y = 1
	case 2:
		v.Z = 1
	case 3:
		v.W = 1
	}
	return v
}

func TestBladeSign(t *testing.T) {
	// e2·e1 = -e12
	assert.Equal(t, -1.0, bladeSign(0b0010, 0b0001))
	// e1·e2 = e12
	assert.Equal(t, 1.0, bladeSign(0b0001, 0b0010))
	// e12·e12 = -1
	assert.Equal(t, -1.0, bladeSign(0b0011, 0b0011))
	// e1234·e1234 = +1
	assert.Equal(t, 1.0, bladeSign(0b1111, 0b1111))
}

func TestIncrementalCompositionMatchesSingleRotation(t *testing.T) {
	const steps = 1000
	const total = 2.5
	for _, p := range Planes() {
		t.Run(p.String(), func(t *testing.T) {
			step := FromPlaneAngle(p, total/steps)
			acc := IdentityRotor()
			for i := 0; i < steps; i++ {
				acc = Compose(step, acc)
			}
			want := FromPlaneAngle(p, total)
			assert.True(t, acc.ApproxEqual(want, 1e-4), "got %+v want %+v", acc, want)
			assert.InDelta(t, 1.0, acc.Norm(), DefaultRotorEpsilon)
		})
	}
}

func TestFromPlaneAngleRoundTrip(t *testing.T) {
	angles := []float64{0, 0.3, math.Pi / 2, 2, -1.1, math.Pi}
	for _, p := range Planes() {
		for _, theta := range angles {
			m := FromPlaneAngle(p, theta).Matrix()
			i, j := p.Axes()
			c, s := math.Cos(theta), math.Sin(theta)

			gotI := Vec4FromMgl(m.Mul4x1(basis(i).Mgl()))
			gotJ := Vec4FromMgl(m.Mul4x1(basis(j).Mgl()))
			wantI := basis(i).Scale(c).Add(basis(j).Scale(s))
			wantJ := basis(i).Scale(-s).Add(basis(j).Scale(c))
			assert.InDelta(t, 0, gotI.Sub(wantI).Len(), 1e-9, "plane %s angle %v axis i", p, theta)
			assert.InDelta(t, 0, gotJ.Sub(wantJ).Len(), 1e-9, "plane %s angle %v axis j", p, theta)

			for k := 0; k < 4; k++ {
				if k == i || k == j {
					continue
				}
				got := Vec4FromMgl(m.Mul4x1(basis(k).Mgl()))
				assert.InDelta(t, 0, got.Sub(basis(k)).Len(), 1e-9, "plane %s fixes axis %d", p, k)
			}
			assert.True(t, IsOrthogonal(m, DefaultRotorEpsilon))
		}
	}
}

func TestXW90ClosedForm(t *testing.T) {
	m := FromPlaneAngle(PlaneXW, math.Pi/2).Matrix()
	want := mgl64.Mat4{
		0, 0, 0, 1, // column 0: X → W
		0, 1, 0, 0,
		0, 0, 1, 0,
		-1, 0, 0, 0, // column 3: W → -X
	}
	for i := range want {
		assert.InDelta(t, want[i], m[i], 1e-12, "element %d of %v", i, m)
	}
}

func TestComposeOrderAndAssociativity(t *testing.T) {
	a := FromPlaneAngle(PlaneXY, 0.7)
	b := FromPlaneAngle(PlaneYW, -1.3)
	c := FromPlaneAngle(PlaneZW, 0.4)

	// b first, then a.
	v := V4(1, 2, 3, 4)
	got := Compose(a, b).Apply(v)
	want := a.Apply(b.Apply(v))
	assert.InDelta(t, 0, got.Sub(want).Len(), 1e-9)
	assert.Equal(t, Compose(a, b), b.Then(a))

	left := Compose(Compose(a, b), c)
	right := Compose(a, Compose(b, c))
	assert.True(t, left.ApproxEqual(right, 1e-12))

	assert.False(t, Compose(a, b).ApproxEqual(Compose(b, a), 1e-6))
}

func TestApplyMatchesMatrix(t *testing.T) {
	r := Compose(FromPlaneAngle(PlaneXZ, 0.9), Compose(FromPlaneAngle(PlaneXW, 1.7), FromPlaneAngle(PlaneYZ, -0.2)))
	m := r.Matrix()
	v := V4(-2, 0.5, 3, 1)
	got := r.Apply(v)
	want := Vec4FromMgl(m.Mul4x1(v.Mgl()))
	assert.InDelta(t, 0, got.Sub(want).Len(), 1e-9)
	assert.InDelta(t, v.Len(), got.Len(), 1e-9)
	assert.True(t, IsOrthogonal(m, DefaultRotorEpsilon))
}

func TestReverseInverts(t *testing.T) {
	r := Compose(FromPlaneAngle(PlaneXY, 0.4), FromPlaneAngle(PlaneZW, 1.2))
	id := Compose(r, r.Reverse())
	assert.True(t, id.ApproxEqual(IdentityRotor(), 1e-12))
}

func TestRenormalizeClampsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   Rotor
		want Rotor
	}{
		{name: "zero", in: Rotor{}, want: IdentityRotor()},
		{name: "nan", in: Rotor{S: math.NaN(), E12: 1}, want: IdentityRotor()},
		{name: "inf", in: Rotor{S: math.Inf(1)}, want: IdentityRotor()},
		{name: "diverged", in: Rotor{S: 30, E14: 40}, want: Rotor{S: 0.6, E14: 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Renormalize()
			assert.True(t, got.ApproxEqual(tt.want, 1e-12), "got %+v", got)
			assert.True(t, got.IsFinite())
		})
	}
}

func TestComposeWithMalformedRotorKeepsRotating(t *testing.T) {
	bad := Rotor{S: math.NaN()}
	r := Compose(FromPlaneAngle(PlaneXY, 0.5), bad)
	require.True(t, r.IsFinite())
	assert.InDelta(t, 1.0, r.Norm(), 1e-12)
	assert.Equal(t, math.Inf(1), bad.Drift())
}

func TestIntegrate(t *testing.T) {
	r := IdentityRotor()
	for i := 0; i < 600; i++ {
		r = r.Integrate(PlaneYW, 0.5, 1.0/60)
	}
	assert.True(t, r.ApproxEqual(FromPlaneAngle(PlaneYW, 5), 1e-6))
	assert.Less(t, r.Drift(), DefaultRotorEpsilon)
}

func TestInvalidPlaneYieldsIdentity(t *testing.T) {
	assert.Equal(t, IdentityRotor(), FromPlaneAngle(Plane(9), 1))
	assert.Zero(t, IdentityRotor().Bivector(Plane(-1)))
}
