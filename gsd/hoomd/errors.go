package hoomd

import "errors"

var (
	// ErrIndexOutOfRange is returned when a frame index does not resolve to a frame.
	ErrIndexOutOfRange = errors.New("frame index out of range")

	// ErrShapeMismatch is returned when a per-entity array's length differs from the
	// category's N, or a row has the wrong width.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidSnapshot is returned for snapshot values the schema cannot represent.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
