//go:build unix

package fileutil

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/memkit/alloc"
)

// readAll reads the file at path into a buffer of size+extra bytes from a
// and returns it with the file size.
func readAll(path string, a alloc.Allocator, extra int) ([]byte, int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, 0, &os.PathError{Op: "open", Path: path, Err: err}
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, 0, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		return nil, 0, &os.PathError{Op: "read", Path: path, Err: ErrIsDir}
	}
	size, err := fileSize(path, st.Size, extra)
	if err != nil {
		return nil, 0, err
	}

	b, err := a.Alloc(size + extra)
	if err != nil {
		return nil, 0, err
	}
	for n := 0; n < size; {
		m, err := unix.Read(fd, b[n:size])
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			a.Free(b, size+extra)
			return nil, 0, &os.PathError{Op: "read", Path: path, Err: err}
		case m == 0:
			a.Free(b, size+extra)
			return nil, 0, &os.PathError{Op: "read", Path: path, Err: ErrShortRead}
		}
		n += m
	}
	return b, size, nil
}
