package alloc

import "github.com/joshuapare/memkit/heap"

func heapAlloc(src heap.Source, size int, zero bool) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if zero {
		b, err = src.Zalloc(size)
	} else {
		b, err = src.Alloc(size)
	}
	if err != nil {
		return nil, oom("alloc", size, err)
	}
	return b, nil
}

func heapRealloc(src heap.Source, b []byte, oldSize, newSize int) ([]byte, error) {
	if newSize == 0 {
		if b != nil {
			src.Free(b, oldSize)
		}
		return nil, nil
	}
	if b == nil {
		return heapAlloc(src, newSize, false)
	}
	nb, err := src.Realloc(b, oldSize, newSize)
	if err != nil {
		return nil, oom("realloc", newSize, err)
	}
	return nb, nil
}
