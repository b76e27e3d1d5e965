// Package fileutil reads whole files into allocator-owned buffers.
//
// Every function takes the alloc.Allocator that will own the result. On
// failure nothing stays allocated.
package fileutil

import (
	"errors"
	"math"
	"os"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/buf"
)

var (
	// ErrTooLarge indicates a file whose size does not fit in an int.
	ErrTooLarge = errors.New("fileutil: file too large")

	// ErrShortRead indicates the file shrank while it was being read.
	ErrShortRead = errors.New("fileutil: file changed size during read")

	// ErrIsDir indicates the path names a directory.
	ErrIsDir = errors.New("fileutil: is a directory")
)

// BufSize is the size to free a ReadFile or ReadText result with: the
// returned slice hides the trailing NUL.
func BufSize(n int) int {
	return n + 1
}

// ReadFile reads the file at path into a buffer from a. The buffer carries a
// NUL after the last byte so it can be handed to code expecting a C string;
// the returned slice excludes it. Free with a.Free(b, BufSize(len(b))).
func ReadFile(path string, a alloc.Allocator) ([]byte, error) {
	b, size, err := readAll(path, a, 1)
	if err != nil {
		return nil, err
	}
	b[size] = 0
	return b[:size], nil
}

// ReadBinFile reads the file at path into a buffer of exactly its size.
// Free with a.Free(b, len(b)).
func ReadBinFile(path string, a alloc.Allocator) ([]byte, error) {
	b, _, err := readAll(path, a, 0)
	return b, err
}

// WriteFile writes data to path, creating or truncating it.
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// fileSize converts a stat size, refusing anything that would overflow an
// allocation request of size+extra.
func fileSize(path string, size int64, extra int) (int, error) {
	if size < 0 || size > math.MaxInt {
		return 0, &os.PathError{Op: "read", Path: path, Err: ErrTooLarge}
	}
	if _, ok := buf.AddOverflowSafe(int(size), extra); !ok {
		return 0, &os.PathError{Op: "read", Path: path, Err: ErrTooLarge}
	}
	return int(size), nil
}
