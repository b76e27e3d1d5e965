package heap

import (
	"fmt"
	"sync"
)

// Limited is a Source with a byte budget. It is safe for concurrent use.
type Limited struct {
	src Source
	max int

	mu    sync.Mutex
	inUse int
	peak  int
	fails int
}

// NewLimited wraps src so that at most maxBytes are outstanding at any time.
// A nil src means Runtime.
func NewLimited(src Source, maxBytes int) *Limited {
	if src == nil {
		src = Runtime
	}
	return &Limited{src: src, max: maxBytes}
}

func (l *Limited) reserve(delta int) error {
	if delta > 0 && l.inUse+delta > l.max {
		l.fails++
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrExhausted, delta, l.inUse, l.max)
	}
	return nil
}

func (l *Limited) account(delta int) {
	l.inUse += delta
	if l.inUse > l.peak {
		l.peak = l.inUse
	}
}

func (l *Limited) Alloc(size int) ([]byte, error) {
	return l.alloc(size, l.src.Alloc)
}

func (l *Limited) Zalloc(size int) ([]byte, error) {
	return l.alloc(size, l.src.Zalloc)
}

func (l *Limited) alloc(size int, fn func(int) ([]byte, error)) ([]byte, error) {
	if size < 0 {
		return nil, ErrBadSize
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.reserve(size); err != nil {
		return nil, err
	}
	b, err := fn(size)
	if err != nil {
		return nil, err
	}
	l.account(size)
	return b, nil
}

func (l *Limited) Realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	if oldSize < 0 || newSize < 0 {
		return nil, ErrBadSize
	}
	if b == nil {
		oldSize = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.reserve(newSize - oldSize); err != nil {
		return nil, err
	}
	nb, err := l.src.Realloc(b, oldSize, newSize)
	if err != nil {
		return nil, err
	}
	l.account(newSize - oldSize)
	return nb, nil
}

func (l *Limited) Free(b []byte, size int) {
	if b == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src.Free(b, size)
	l.account(-size)
}

// InUse reports the bytes currently outstanding.
func (l *Limited) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inUse
}

// Peak reports the high-water mark of InUse.
func (l *Limited) Peak() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}

// Failures reports how many requests were refused for exceeding the budget.
func (l *Limited) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fails
}

// SetMax changes the budget. Outstanding memory is unaffected.
func (l *Limited) SetMax(maxBytes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = maxBytes
}
