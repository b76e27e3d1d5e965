//go:build linux || darwin || freebsd

package heap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/memkit/internal/buf"
)

type mmapSource struct {
	pageSize int
}

// NewMmap returns a Source that serves every region from its own anonymous
// private mapping. Regions are page-granular, so it suits arena blocks and
// big allocations rather than many small requests.
func NewMmap() Source {
	return &mmapSource{pageSize: unix.Getpagesize()}
}

// span is the mapping length backing a region of size bytes.
func (m *mmapSource) span(size int) (int, bool) {
	return buf.AlignUp(max(size, 1), m.pageSize)
}

func (m *mmapSource) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrBadSize
	}
	n, ok := m.span(size)
	if !ok {
		return nil, ErrBadSize
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrExhausted, n, err)
	}
	return b[:size], nil
}

// Zalloc is Alloc: fresh anonymous mappings are zero-filled by the kernel.
func (m *mmapSource) Zalloc(size int) ([]byte, error) {
	return m.Alloc(size)
}

func (m *mmapSource) Realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	if oldSize < 0 || newSize < 0 {
		return nil, ErrBadSize
	}
	if b == nil {
		return m.Alloc(newSize)
	}
	oldSpan, _ := m.span(oldSize)
	newSpan, ok := m.span(newSize)
	if !ok {
		return nil, ErrBadSize
	}
	if oldSpan == newSpan {
		return m.mapping(b, oldSpan)[:newSize], nil
	}
	nb, err := m.Alloc(newSize)
	if err != nil {
		return nil, err
	}
	copy(nb, m.mapping(b, oldSpan)[:min(oldSize, newSize)])
	m.Free(b, oldSize)
	return nb, nil
}

func (m *mmapSource) Free(b []byte, size int) {
	if b == nil {
		return
	}
	n, _ := m.span(size)
	if err := unix.Munmap(m.mapping(b, n)); err != nil {
		panic(fmt.Errorf("heap: munmap of %d bytes failed: %w", n, err))
	}
}

// mapping rebuilds the full mapping slice from a region handed out by Alloc.
// unix.Munmap identifies mappings by their full extent.
func (m *mmapSource) mapping(b []byte, span int) []byte {
	return unsafe.Slice(unsafe.SliceData(b[:cap(b)]), span)
}
