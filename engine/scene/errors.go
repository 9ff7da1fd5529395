package scene

import "errors"

var (
	// ErrUnknownNode is returned for NodeIDs that were never issued or whose node was destroyed.
	ErrUnknownNode = errors.New("unknown scene node")

	// ErrCycle is returned when attaching a node beneath its own descendant.
	ErrCycle = errors.New("scene node cycle")

	// ErrNotChild is returned by RemoveChild when the child has a different parent.
	ErrNotChild = errors.New("node is not a child of parent")
)
