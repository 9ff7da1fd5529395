package projector

import (
	"fmt"
	"strings"
)

// Mode selects how 4D points are flattened into 3D. The numeric value is the
// projection_mode field of the shader uniform block.
type Mode uint32

const (
	// ModePerspective divides xyz by (distance - w).
	ModePerspective Mode = iota
	// ModeStereographic scales xyz by distance / (distance - w).
	ModeStereographic
	// ModeOrthographic drops w.
	ModeOrthographic
)

var modeNames = map[Mode]string{
	ModePerspective:   "perspective",
	ModeStereographic: "stereographic",
	ModeOrthographic:  "orthographic",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", uint32(m))
}

// Valid reports whether m is one of the three projection modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode parses a mode name, case-insensitively.
//
// Parameters:
//   - s: "perspective", "stereographic" or "orthographic"
//
// Returns:
//   - Mode: the parsed mode
//   - error: ErrUnknownMode if s is not a mode name
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint32(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
