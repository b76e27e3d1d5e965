//go:build !unix

package fileutil

import (
	"errors"
	"io"
	"os"

	"github.com/joshuapare/memkit/alloc"
)

// readAll reads the file at path through os when raw syscalls are not
// available.
func readAll(path string, a alloc.Allocator, extra int) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	if info.IsDir() {
		return nil, 0, &os.PathError{Op: "read", Path: path, Err: ErrIsDir}
	}
	size, err := fileSize(path, info.Size(), extra)
	if err != nil {
		return nil, 0, err
	}

	b, err := a.Alloc(size + extra)
	if err != nil {
		return nil, 0, err
	}
	if _, err := io.ReadFull(f, b[:size]); err != nil {
		a.Free(b, size+extra)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrShortRead
		}
		return nil, 0, &os.PathError{Op: "read", Path: path, Err: err}
	}
	return b, size, nil
}
