package lifecycle

import "fmt"

// State is the lifecycle state of one registered renderer.
type State int

const (
	// StateRegistered renderers are known to the manager but not drawing.
	StateRegistered State = iota

	// StateActive is held by at most one renderer at a time.
	StateActive

	// StateFailed renderers hit a backend error and are excluded from activation until
	// recovered.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
