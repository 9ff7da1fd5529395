package hypermath

import (
	"fmt"
	"strings"
)

// Plane identifies one of the six orthogonal rotation planes of 4-space.
type Plane int

const (
	// PlaneXY rotates X toward Y (bivector e12).
	PlaneXY Plane = iota
	// PlaneXZ rotates X toward Z (bivector e13).
	PlaneXZ
	// PlaneYZ rotates Y toward Z (bivector e23).
	PlaneYZ
	// PlaneXW rotates X toward W (bivector e14).
	PlaneXW
	// PlaneYW rotates Y toward W (bivector e24).
	PlaneYW
	// PlaneZW rotates Z toward W (bivector e34).
	PlaneZW
)

// planeCount is the number of rotation planes in 4-space (4 choose 2).
const planeCount = 6

var planeNames = [planeCount]string{"XY", "XZ", "YZ", "XW", "YW", "ZW"}

// planeAxes holds the (from, to) axis indices of each plane.
var planeAxes = [planeCount][2]int{
	{0, 1},
	{0, 2},
	{1, 2},
	{0, 3},
	{1, 3},
	{2, 3},
}

// Planes returns all six planes in their canonical composition order.
//
// Returns:
//   - []Plane: XY, XZ, YZ, XW, YW, ZW
func Planes() []Plane {
	return []Plane{PlaneXY, PlaneXZ, PlaneYZ, PlaneXW, PlaneYW, PlaneZW}
}

// Valid reports whether p names one of the six planes.
func (p Plane) Valid() bool {
	return p >= PlaneXY && p <= PlaneZW
}

// Axes returns the two axis indices spanning the plane. A positive angle rotates the first
// axis toward the second.
//
// Returns:
//   - i: the index of the first axis (0=X … 3=W)
//   - j: the index of the second axis
func (p Plane) Axes() (i, j int) {
	if !p.Valid() {
		return 0, 0
	}
	a := planeAxes[p]
	return a[0], a[1]
}

func (p Plane) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Plane(%d)", int(p))
	}
	return planeNames[p]
}

// ParsePlane parses a plane name such as "xw" or "XW" (case-insensitive).
//
// Parameters:
//   - s: the plane name
//
// Returns:
//   - Plane: the parsed plane
//   - error: an error if s does not name a rotation plane
func ParsePlane(s string) (Plane, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range planeNames {
		if n == name {
			return Plane(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPlane, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Plane) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlane, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Plane) UnmarshalText(text []byte) error {
	parsed, err := ParsePlane(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
