package projector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func TestProjectModes(t *testing.T) {
	p := hypermath.V4(1, 2, 3, 1)
	tests := []struct {
		mode Mode
		want mgl64.Vec3
	}{
		{ModePerspective, mgl64.Vec3{0.5, 1, 1.5}},
		{ModeStereographic, mgl64.Vec3{1.5, 3, 4.5}},
		{ModeOrthographic, mgl64.Vec3{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			pr := New(tt.mode)
			assert.True(t, pr.Project(p).ApproxEqual(tt.want))
		})
	}
}

func TestProjectAlwaysFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	near := []hypermath.Vec4{
		hypermath.V4(1, 1, 1, 5),
		hypermath.V4(1, 1, 1, 5-1e-9),
		hypermath.V4(1, 1, 1, 5+1e-9),
		hypermath.V4(math.MaxFloat64, -math.MaxFloat64, 1, 5),
		hypermath.V4(1, 1, 1, -math.MaxFloat64),
		hypermath.V4(math.MaxFloat64, 0, 0, math.MaxFloat64),
	}
	for _, mode := range []Mode{ModePerspective, ModeStereographic, ModeOrthographic} {
		for _, eps := range []float64{1e-6, DefaultEpsilon} {
			pr := Projector{Mode: mode, Distance: 5, Epsilon: eps}
			for _, p := range near {
				assert.True(t, finite(pr.Project(p)), "mode %s eps %v point %+v", mode, eps, p)
			}
			for i := 0; i < 2000; i++ {
				p := hypermath.V4(
					rng.NormFloat64()*1e3,
					rng.NormFloat64()*1e3,
					rng.NormFloat64()*1e3,
					5+rng.NormFloat64()*1e-6,
				)
				assert.True(t, finite(pr.Project(p)))
			}
		}
	}
}

func TestClampPreservesSign(t *testing.T) {
	pr := Projector{Mode: ModePerspective, Distance: 5, Epsilon: 0.1}
	assert.Equal(t, 0.1, pr.Denominator(hypermath.V4(0, 0, 0, 5)))
	assert.Equal(t, 0.1, pr.Denominator(hypermath.V4(0, 0, 0, 4.99)))
	assert.Equal(t, -0.1, pr.Denominator(hypermath.V4(0, 0, 0, 5.01)))
	assert.Equal(t, 2.0, pr.Denominator(hypermath.V4(0, 0, 0, 3)))
	assert.Equal(t, 1.0, Projector{Mode: ModeOrthographic}.Denominator(hypermath.V4(0, 0, 0, 5)))

	// Points just behind the eye flip to the other side instead of spiking.
	assert.Less(t, pr.Project(hypermath.V4(1, 0, 0, 5.01)).X(), 0.0)
}

func TestPerspectiveNearEyeIsBounded(t *testing.T) {
	pr := New(ModePerspective)
	pr.Distance = 5

	near := pr.Project(hypermath.V4(1, 0, 0, 4.999999))
	far := pr.Project(hypermath.V4(1, 0, 0, 0))
	require.True(t, finite(near))
	assert.InDelta(t, 0.2, far.X(), 1e-12)
	assert.InDelta(t, 1/DefaultEpsilon, near.X(), 1e-9)
	assert.LessOrEqual(t, near.X()/far.X(), 100.0)
}

func TestZeroEpsilonFallsBackToDefault(t *testing.T) {
	pr := Projector{Mode: ModePerspective, Distance: 1}
	assert.Equal(t, DefaultEpsilon, pr.Denominator(hypermath.V4(0, 0, 0, 1)))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Stereographic")
	require.NoError(t, err)
	assert.Equal(t, ModeStereographic, m)

	_, err = ParseMode("fisheye")
	assert.ErrorIs(t, err, ErrUnknownMode)

	var u Mode
	require.NoError(t, u.UnmarshalText([]byte("orthographic")))
	assert.Equal(t, ModeOrthographic, u)
	_, err = Mode(7).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownMode)
}
