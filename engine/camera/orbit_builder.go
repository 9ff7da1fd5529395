package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitControllerOption configures an orbit controller.
type OrbitControllerOption func(*orbitControllerImpl)

// WithTarget sets the initial orbit center.
//
// Parameters:
//   - target: the point the eye looks at
//
// Returns:
//   - OrbitControllerOption: option function to apply
func WithTarget(target mgl32.Vec3) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.target = target
	}
}

// WithRadius sets the initial eye distance.
func WithRadius(radius float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation in radians.
func WithAngles(azimuth, elevation float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.azimuth = azimuth
		oc.elevation = elevation
	}
}

// WithRadiusBounds sets the zoom limits. Bounds with min > max are ignored.
//
// Parameters:
//   - minRadius: the closest allowed distance
//   - maxRadius: the farthest allowed distance
//
// Returns:
//   - OrbitControllerOption: option function to apply
func WithRadiusBounds(minRadius, maxRadius float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		if minRadius <= maxRadius {
			oc.minRadius = minRadius
			oc.maxRadius = maxRadius
		}
	}
}

// WithElevationBounds sets the tilt limits in radians.
func WithElevationBounds(minElevation, maxElevation float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		if minElevation <= maxElevation {
			oc.minElevation = minElevation
			oc.maxElevation = maxElevation
		}
	}
}

// WithZoomSpeed sets the radius change per unit of Zoom delta.
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.zoomSpeed = speed
	}
}
