package alloc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/memkit/internal/logger"
)

var (
	// ErrOutOfMemory indicates the backing memory could not satisfy a request.
	// Every allocation failure returned by this package matches it with errors.Is.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrNoStorage is returned by the Null allocator for every allocation.
	ErrNoStorage = fmt.Errorf("%w: null allocator has no storage", ErrOutOfMemory)

	// ErrFaultInjected is returned by the Testing allocator when fail-at fires.
	ErrFaultInjected = fmt.Errorf("%w: injected fault", ErrOutOfMemory)
)

// Usage errors. These are never returned; they are carried by a *UsageError panic.
var (
	// ErrUnset indicates an operation on the zero Allocator.
	ErrUnset = errors.New("alloc: use of unset allocator")

	// ErrUnsupported indicates an operation the allocator kind cannot perform,
	// such as FreeAll on Heap or Null.
	ErrUnsupported = errors.New("alloc: operation not supported by allocator")

	// ErrWrongSize indicates a free or realloc whose size differs from the
	// size the allocation was made with.
	ErrWrongSize = errors.New("alloc: size does not match recorded allocation")

	// ErrUntracked indicates a free or realloc of memory this allocator never handed out.
	ErrUntracked = errors.New("alloc: pointer not tracked by this allocator")

	// ErrBadSize indicates a negative size.
	ErrBadSize = errors.New("alloc: negative size")
)

// UsageError describes allocator misuse. Misuse corrupts bookkeeping, so it is
// reported by panicking with a *UsageError rather than returning an error.
type UsageError struct {
	Op       string  // operation that detected the misuse
	Kind     Kind    // allocator kind the operation was dispatched to
	Addr     uintptr // address of the offending allocation, if any
	Size     int     // size supplied by the caller
	Recorded int     // size on record, for ErrWrongSize
	Err      error   // one of the usage sentinels above
}

func (e *UsageError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v: %s on %s allocator", e.Err, e.Op, e.Kind)
	if e.Addr != 0 {
		fmt.Fprintf(&sb, " (addr=%#x size=%d", e.Addr, e.Size)
		if errors.Is(e.Err, ErrWrongSize) {
			fmt.Fprintf(&sb, " recorded=%d", e.Recorded)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *UsageError) Unwrap() error { return e.Err }

// misuse logs e and panics with it.
func misuse(e *UsageError) {
	logger.Error("allocator misuse",
		"op", e.Op, "kind", e.Kind.String(), "addr", e.Addr,
		"size", e.Size, "recorded", e.Recorded, "err", e.Err)
	panic(e)
}

// Leak is a live allocation found by a leak check.
type Leak struct {
	Addr  uintptr
	Size  int
	Stack []string // allocation site frames; empty unless backtraces are enabled
}

// LeakError is the panic value of AssertAllFreed.
type LeakError struct {
	Leaks []Leak
}

func (e *LeakError) Error() string {
	total := 0
	for _, l := range e.Leaks {
		total += l.Size
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "alloc: %d allocation(s) leaked, %d bytes", len(e.Leaks), total)
	for _, l := range e.Leaks {
		fmt.Fprintf(&sb, "\n  %#x size=%d", l.Addr, l.Size)
		for _, f := range l.Stack {
			sb.WriteString("\n      ")
			sb.WriteString(f)
		}
	}
	return sb.String()
}

// oom wraps a backing failure so that it matches ErrOutOfMemory and the cause.
func oom(op string, size int, cause error) error {
	return fmt.Errorf("%w: %s %d bytes: %w", ErrOutOfMemory, op, size, cause)
}
