// Package projector flattens 4D points into 3D. Projection is a pure function of the point
// and a small configuration value; every finite input yields a finite output.
package projector

import (
	"math"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultDistance is the w coordinate of the 4D eye for perspective and stereographic modes.
	DefaultDistance = 3.0

	// DefaultEpsilon is the smallest magnitude a projection denominator may take. Denominators
	// closer to zero are clamped to ±DefaultEpsilon with their sign preserved.
	DefaultEpsilon = 0.1
)

// Projector is the projection configuration. The zero value projects perspectively from the
// origin with the default epsilon.
type Projector struct {
	Mode     Mode
	Distance float64
	Epsilon  float64
}

// New returns a Projector for the given mode with default distance and epsilon.
func New(mode Mode) Projector {
	return Projector{Mode: mode, Distance: DefaultDistance, Epsilon: DefaultEpsilon}
}

// Project maps p to 3D under the configured mode.
//
// Parameters:
//   - p: the 4D point
//
// Returns:
//   - mgl64.Vec3: the projected point, finite whenever p is finite
func (pr Projector) Project(p hypermath.Vec4) mgl64.Vec3 {
	var out mgl64.Vec3
	switch pr.Mode {
	case ModeOrthographic:
		out = mgl64.Vec3{p.X, p.Y, p.Z}
	case ModeStereographic:
		d := pr.clampDenominator(pr.Distance - p.W)
		k := pr.Distance / d
		out = mgl64.Vec3{p.X * k, p.Y * k, p.Z * k}
	default:
		d := pr.clampDenominator(pr.Distance - p.W)
		out = mgl64.Vec3{p.X / d, p.Y / d, p.Z / d}
	}
	return saturate(out)
}

// ProjectAll projects every point of in into out on the calling goroutine. out must be at
// least as long as in.
func (pr Projector) ProjectAll(in []hypermath.Vec4, out []mgl64.Vec3) {
	for i, p := range in {
		out[i] = pr.Project(p)
	}
}

// Denominator returns the clamped denominator used for p, or 1 for orthographic projection.
func (pr Projector) Denominator(p hypermath.Vec4) float64 {
	if pr.Mode == ModeOrthographic {
		return 1
	}
	return pr.clampDenominator(pr.Distance - p.W)
}

func (pr Projector) epsilon() float64 {
	if pr.Epsilon > 0 && !math.IsInf(pr.Epsilon, 0) {
		return pr.Epsilon
	}
	return DefaultEpsilon
}

func (pr Projector) clampDenominator(d float64) float64 {
	eps := pr.epsilon()
	switch {
	case math.IsNaN(d):
		return eps
	case math.Abs(d) >= eps:
		return d
	case d < 0:
		return -eps
	default:
		return eps
	}
}

// saturate replaces overflowed components with ±MaxFloat64 and NaN with zero.
func saturate(v mgl64.Vec3) mgl64.Vec3 {
	for i, c := range v {
		switch {
		case math.IsNaN(c):
			v[i] = 0
		case math.IsInf(c, 1):
			v[i] = math.MaxFloat64
		case math.IsInf(c, -1):
			v[i] = -math.MaxFloat64
		}
	}
	return v
}
