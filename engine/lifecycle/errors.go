package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveRenderer is returned by RenderFrame when no renderer is active.
	ErrNoActiveRenderer = errors.New("lifecycle: no active renderer")

	// ErrUnknownRenderer is returned for ids that were never registered.
	ErrUnknownRenderer = errors.New("lifecycle: unknown renderer")

	// ErrRendererFailed is returned when activating a renderer in StateFailed.
	ErrRendererFailed = errors.New("lifecycle: renderer failed")

	// ErrDuplicateRenderer is returned when registering an id twice.
	ErrDuplicateRenderer = errors.New("lifecycle: renderer already registered")

	// ErrInvalidFrameRate is returned by Run for non-positive rates.
	ErrInvalidFrameRate = errors.New("lifecycle: frame rate must be positive")

	// ErrBackendPanic wraps a panic recovered from a backend call.
	ErrBackendPanic = errors.New("lifecycle: backend panicked")
)

// Op names the backend call that failed.
type Op string

const (
	OpSetActive   Op = "SetActive"
	OpResize      Op = "Resize"
	OpRenderFrame Op = "RenderFrame"
)

// BackendError reports a renderer failure. The renderer is left in StateFailed with its
// resources intact.
type BackendError struct {
	RendererID string
	Op         Op
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("lifecycle: renderer %q failed in %s: %v", e.RendererID, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
