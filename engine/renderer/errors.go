package renderer

import "errors"

var (
	// ErrNotActive is returned by RenderFrame on an inactive renderer.
	ErrNotActive = errors.New("renderer not active")

	// ErrInvalidSize is returned by Resize for negative dimensions.
	ErrInvalidSize = errors.New("invalid viewport size")

	// ErrNoFrameSource is returned when a renderer is activated without a frame source.
	ErrNoFrameSource = errors.New("renderer has no frame source")

	// ErrUnknownBackend is returned when a backend name cannot be parsed.
	ErrUnknownBackend = errors.New("unknown renderer backend")
)
