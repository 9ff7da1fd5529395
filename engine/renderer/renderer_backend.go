package renderer

import (
	"fmt"
	"strings"
)

// BackendType identifies a backend implementation. Backends are chosen by this tag when a
// renderer is constructed, never by probing a renderer's capabilities.
type BackendType int

const (
	// BackendTypeWebGL selects the immediate raster path: the CPU-projected point stream is
	// drawn directly into a framebuffer.
	BackendTypeWebGL BackendType = iota

	// BackendTypeWebGPU selects the command/pipeline path: raw 4D vertices are uploaded and the
	// shader applies the uniform block.
	BackendTypeWebGPU
)

var backendNames = map[BackendType]string{
	BackendTypeWebGL:  "webgl",
	BackendTypeWebGPU: "webgpu",
}

func (b BackendType) String() string {
	if n, ok := backendNames[b]; ok {
		return n
	}
	return fmt.Sprintf("BackendType(%d)", int(b))
}

// ParseBackendType parses "webgl" or "webgpu", case-insensitively.
//
// Parameters:
//   - s: the backend name
//
// Returns:
//   - BackendType: the parsed backend
//   - error: ErrUnknownBackend if s names no backend
func ParseBackendType(s string) (BackendType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for b, n := range backendNames {
		if n == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// MarshalText implements encoding.TextMarshaler.
func (b BackendType) MarshalText() ([]byte, error) {
	if _, ok := backendNames[b]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BackendType) UnmarshalText(text []byte) error {
	parsed, err := ParseBackendType(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)
