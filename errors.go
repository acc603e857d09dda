package speedy

import "errors"

// Error kinds surfaced synchronously at the Stream API boundary (spec.md
// §7). NotYetAvailable stays internal to internal/tension and is never
// returned here.
var (
	// ErrInvalidConfiguration is returned by a setter or NewStream when a
	// value is outside its documented range.
	ErrInvalidConfiguration = errors.New("speedy: invalid configuration")

	// ErrAllocationFailed is returned from WriteFloat/WriteInt16 when an
	// internal ring buffer cannot grow to accept more data.
	ErrAllocationFailed = errors.New("speedy: allocation failed")

	// ErrInvalidState is returned by WriteFloat/WriteInt16 when called after
	// Flush or Close.
	ErrInvalidState = errors.New("speedy: invalid state")
)
