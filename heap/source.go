package heap

// Source is a backing memory provider.
//
// Alloc may return uninitialized memory; Zalloc always returns zeroed memory.
// Realloc with a nil slice behaves like Alloc. The contents up to
// min(oldSize, newSize) are preserved across Realloc.
type Source interface {
	Alloc(size int) ([]byte, error)
	Zalloc(size int) ([]byte, error)
	Realloc(b []byte, oldSize, newSize int) ([]byte, error)
	Free(b []byte, size int)
}

// Runtime is the Source backed by the Go runtime allocator.
var Runtime Source = runtimeSource{}

type runtimeSource struct{}

// Alloc returns a region of exactly size bytes. Zero-size regions still get a
// distinct address so that callers can tell them apart.
func (runtimeSource) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrBadSize
	}
	return make([]byte, size, max(size, 1)), nil
}

func (r runtimeSource) Zalloc(size int) ([]byte, error) {
	return r.Alloc(size)
}

// Realloc resizes in place when the region's capacity allows it, otherwise
// copies into a fresh region.
func (r runtimeSource) Realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	if newSize < 0 || oldSize < 0 {
		return nil, ErrBadSize
	}
	if b == nil {
		return r.Alloc(newSize)
	}
	if newSize <= cap(b) {
		return b[:newSize], nil
	}
	nb := make([]byte, newSize)
	copy(nb, b[:min(oldSize, cap(b))])
	return nb, nil
}

// Free drops the region; the garbage collector reclaims it.
func (runtimeSource) Free([]byte, int) {}
