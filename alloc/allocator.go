package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/heap"
)

// Allocator is the handle every consumer holds. It is a small value, passed
// by value, that routes each call to the strategy selected by its Kind.
//
// The zero Allocator has KindUnset; using it panics with ErrUnset instead of
// quietly falling back to the heap, so an unconfigured handle is caught at
// its first use.
type Allocator struct {
	kind Kind
	ctx  any
}

// Heap returns an Allocator backed by the Go runtime.
func Heap() Allocator {
	return Allocator{kind: KindHeap}
}

// HeapFrom returns a Heap allocator drawing from src.
func HeapFrom(src heap.Source) Allocator {
	return Allocator{kind: KindHeap, ctx: src}
}

// Null returns an Allocator that never allocates. Useful where an allocator
// is required but allocation must never actually happen.
func Null() Allocator {
	return Allocator{kind: KindNull}
}

// Kind reports the strategy this handle dispatches to.
func (a Allocator) Kind() Kind { return a.kind }

func (a Allocator) String() string {
	return fmt.Sprintf("Allocator(%s)", a.kind)
}

func (a Allocator) source() heap.Source {
	if src, ok := a.ctx.(heap.Source); ok && src != nil {
		return src
	}
	return heap.Runtime
}

func (a Allocator) unset(op string) {
	misuse(&UsageError{Op: op, Kind: a.kind, Err: ErrUnset})
}

// checkSize panics on a negative size. An Unset handle is reported as such
// first, whatever the sizes.
func (a Allocator) checkSize(op string, sizes ...int) {
	if a.kind == KindUnset {
		a.unset(op)
	}
	for _, s := range sizes {
		if s < 0 {
			misuse(&UsageError{Op: op, Kind: a.kind, Size: s, Err: ErrBadSize})
		}
	}
}

// Alloc returns size bytes of uninitialized memory.
func (a Allocator) Alloc(size int) ([]byte, error) {
	a.checkSize("alloc", size)
	switch a.kind {
	case KindHeap:
		return heapAlloc(a.source(), size, false)
	case KindArena:
		return a.ctx.(*Arena).alloc(size, false)
	case KindNull:
		return nil, ErrNoStorage
	case KindRecording:
		return a.ctx.(*Recording).alloc(size, false)
	case KindTesting:
		return a.ctx.(*Testing).alloc(size, false)
	}
	a.unset("alloc")
	return nil, nil
}

// Zalloc returns size bytes of zeroed memory.
func (a Allocator) Zalloc(size int) ([]byte, error) {
	a.checkSize("zalloc", size)
	switch a.kind {
	case KindHeap:
		return heapAlloc(a.source(), size, true)
	case KindArena:
		return a.ctx.(*Arena).alloc(size, true)
	case KindNull:
		return nil, ErrNoStorage
	case KindRecording:
		return a.ctx.(*Recording).alloc(size, true)
	case KindTesting:
		return a.ctx.(*Testing).alloc(size, true)
	}
	a.unset("zalloc")
	return nil, nil
}

// Realloc resizes b from oldSize to newSize bytes, preserving the first
// min(oldSize, newSize) bytes. oldSize must be the size b was allocated
// with. A nil b allocates; a newSize of 0 frees b and returns nil.
// On failure b is untouched and still owned by the caller.
func (a Allocator) Realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	a.checkSize("realloc", oldSize, newSize)
	switch a.kind {
	case KindHeap:
		return heapRealloc(a.source(), b, oldSize, newSize)
	case KindArena:
		return a.ctx.(*Arena).realloc(b, oldSize, newSize)
	case KindNull:
		if newSize == 0 {
			return nil, nil
		}
		return nil, ErrNoStorage
	case KindRecording:
		return a.ctx.(*Recording).realloc(b, oldSize, newSize)
	case KindTesting:
		return a.ctx.(*Testing).realloc(b, oldSize, newSize)
	}
	a.unset("realloc")
	return nil, nil
}

// Free releases b, which must have been allocated with size bytes.
// Freeing nil is a no-op.
func (a Allocator) Free(b []byte, size int) {
	a.checkSize("free", size)
	switch a.kind {
	case KindHeap:
		if b != nil {
			a.source().Free(b, size)
		}
		return
	case KindArena:
		a.ctx.(*Arena).free(b, size)
		return
	case KindNull:
		return
	case KindRecording:
		a.ctx.(*Recording).free(b, size)
		return
	case KindTesting:
		a.ctx.(*Testing).free(b, size)
		return
	}
	a.unset("free")
}

// FreeAll releases every outstanding allocation at once. It panics with
// ErrUnsupported on Heap and Null; check SupportsFreeAll first when the
// kind is not known.
func (a Allocator) FreeAll() {
	switch a.kind {
	case KindHeap, KindNull:
		misuse(&UsageError{Op: "free_all", Kind: a.kind, Err: ErrUnsupported})
		return
	case KindArena:
		a.ctx.(*Arena).FreeAll()
		return
	case KindRecording:
		a.ctx.(*Recording).FreeAll()
		return
	case KindTesting:
		a.ctx.(*Testing).FreeAll()
		return
	}
	a.unset("free_all")
}

// SupportsFreeAll reports whether FreeAll may be called.
func (a Allocator) SupportsFreeAll() bool {
	switch a.kind {
	case KindHeap, KindNull:
		return false
	case KindArena, KindRecording, KindTesting:
		return true
	}
	a.unset("supports_free_all")
	return false
}

// GoodSize rounds size up to what the allocator would actually grant, so
// that greedy callers can use the slack without asking again.
func (a Allocator) GoodSize(size int) int {
	a.checkSize("good_size", size)
	switch a.kind {
	case KindHeap, KindNull, KindRecording, KindTesting:
		return size
	case KindArena:
		return arenaRoundUp(size)
	}
	a.unset("good_size")
	return size
}
