// Package b64 encodes and decodes standard base64 into allocator-owned
// buffers.
package b64

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/buf"
)

var (
	// ErrCorrupt indicates input that is not valid base64.
	ErrCorrupt = errors.New("b64: corrupt input")

	// ErrTooLarge indicates input whose encoding would not fit in an int.
	ErrTooLarge = errors.New("b64: input too large")
)

var enc = base64.StdEncoding

// EncodedLen is the length of the encoding of n bytes.
func EncodedLen(n int) int {
	return enc.EncodedLen(n)
}

// DecodedLen is the maximum length of the decoding of n bytes of base64.
func DecodedLen(n int) int {
	return enc.DecodedLen(n)
}

// Encode returns the base64 encoding of src in a buffer from a.
// Free it with a.Free(b, len(b)).
func Encode(a alloc.Allocator, src []byte) ([]byte, error) {
	if _, ok := buf.MulOverflowSafe(len(src)/3+1, 4); !ok {
		return nil, ErrTooLarge
	}
	n := EncodedLen(len(src))
	b, err := a.Alloc(n)
	if err != nil {
		return nil, err
	}
	enc.Encode(b, src)
	return b, nil
}

// Decode returns the decoding of src in a buffer from a. Line breaks in
// src are ignored. The buffer is first sized for the worst case, rounded up
// to what a grants, then shrunk to the decoded length.
// Free it with a.Free(b, len(b)).
func Decode(a alloc.Allocator, src []byte) ([]byte, error) {
	limit := a.GoodSize(DecodedLen(len(src)))
	b, err := a.Alloc(limit)
	if err != nil {
		return nil, err
	}
	n, err := enc.Decode(b, src)
	if err != nil {
		a.Free(b, limit)
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if n == limit {
		return b, nil
	}
	if n == 0 {
		a.Free(b, limit)
		return a.Alloc(0)
	}
	out, err := a.Realloc(b, limit, n)
	if err != nil {
		a.Free(b, limit)
		return nil, err
	}
	return out, nil
}
