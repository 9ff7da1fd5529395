package resource

import "errors"

var (
	// ErrDuplicate is returned when a handle is registered twice in the same scope.
	ErrDuplicate = errors.New("resource already registered")

	// ErrUnknownResource is returned for ids that are not registered in the given scope.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrNilHandle is returned when registering a nil handle.
	ErrNilHandle = errors.New("nil resource handle")
)
