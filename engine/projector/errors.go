package projector

import "errors"

var (
	// ErrUnknownMode is returned when a projection mode name cannot be parsed.
	ErrUnknownMode = errors.New("unknown projection mode")

	// ErrBatchClosed is returned by Batch.Project after Close.
	ErrBatchClosed = errors.New("batch projector closed")
)
