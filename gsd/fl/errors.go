package fl

import "errors"

// Sentinel errors returned (wrapped) by the chunk store. Test with errors.Is.
var (
	// ErrFileNotFound is returned when a read-only open targets a missing path.
	ErrFileNotFound = errors.New("gsd file not found")

	// ErrSchemaMismatch is returned when the header schema disagrees with the caller's expectation.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCorruptFile is returned for a malformed header, name table, index or chunk payload.
	ErrCorruptFile = errors.New("corrupt gsd file")

	// ErrTypeMismatch is returned when a chunk's stored element type or width cannot be
	// interpreted as requested.
	ErrTypeMismatch = errors.New("chunk type mismatch")

	// ErrInvalidChunk is returned when WriteChunk is given inconsistent arguments.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrReadOnly is returned by write operations on a file opened ReadOnly.
	ErrReadOnly = errors.New("file is opened read-only")

	// ErrClosed is returned by operations on a closed file.
	ErrClosed = errors.New("file is closed")
)
