package hypermath

import "errors"

// ErrInvalidPlane is returned when a rotation plane is out of range or cannot be parsed.
var ErrInvalidPlane = errors.New("invalid rotation plane")
