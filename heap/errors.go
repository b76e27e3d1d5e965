package heap

import "errors"

var (
	// ErrExhausted indicates the source could not provide the requested memory.
	ErrExhausted = errors.New("heap: memory exhausted")

	// ErrBadSize indicates a negative or overflowing size request.
	ErrBadSize = errors.New("heap: invalid size")
)
