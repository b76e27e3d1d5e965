package alloc

import (
	"fmt"
	"sync"

	"github.com/joshuapare/memkit/internal/logger"
)

// Testing is a Recording behind a mutex, with deterministic fault injection.
// It is the one allocator meant to be shared across goroutines.
//
// Every allocating call (Alloc, Zalloc, and Realloc when it grows) bumps a
// counter. With fail-at N > 0 exactly the Nth such call fails; with N < 0
// the |N|th and every later call fail; 0 never fails. A failed call returns
// an error matching ErrFaultInjected and leaves the ledger untouched.
type Testing struct {
	mu     sync.Mutex
	rec    Recording
	calls  int64
	failAt int64
}

var theTesting = NewTesting(RecordingOptions{})

// TheTesting returns the process-wide Testing allocator.
func TheTesting() *Testing {
	return theTesting
}

// NewTesting creates a Testing allocator with its own ledger.
func NewTesting(opts RecordingOptions) *Testing {
	t := &Testing{}
	t.rec.configure(opts)
	return t
}

// Allocator returns a handle dispatching to t.
func (t *Testing) Allocator() Allocator {
	return Allocator{kind: KindTesting, ctx: t}
}

// SetFailAt sets the fault policy and resets the call counter with it, so
// that the next allocating call is call 1.
func (t *Testing) SetFailAt(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAt = n
	t.calls = 0
}

// Calls reports how many allocating calls have been made since the last
// SetFailAt or Reset.
func (t *Testing) Calls() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Reset drops the ledger storage and clears the counter and fault policy.
// Tracked allocations are forgotten, not freed.
func (t *Testing) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rec.Cleanup()
	t.calls = 0
	t.failAt = 0
}

// fail counts one allocating call and reports whether it must fail.
// Callers hold t.mu.
func (t *Testing) fail() error {
	t.calls++
	var hit bool
	if t.failAt < 0 {
		hit = t.calls >= -t.failAt
	} else {
		hit = t.calls == t.failAt
	}
	if !hit {
		return nil
	}
	logger.Debug("testing: injected fault", "call", t.calls, "fail_at", t.failAt)
	return fmt.Errorf("%w at call %d", ErrFaultInjected, t.calls)
}

func (t *Testing) alloc(size int, zero bool) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.fail(); err != nil {
		return nil, err
	}
	return t.rec.alloc(size, zero)
}

func (t *Testing) realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if newSize > oldSize {
		if err := t.fail(); err != nil {
			return nil, err
		}
	}
	return t.rec.reallocAs(KindTesting, b, oldSize, newSize)
}

func (t *Testing) free(b []byte, size int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rec.freeAs(KindTesting, b, size)
}

// FreeAll releases every live allocation.
func (t *Testing) FreeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rec.FreeAll()
}

// Leaks lists every live allocation.
func (t *Testing) Leaks() []Leak {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.Leaks()
}

// Live reports the number of live allocations.
func (t *Testing) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.Live()
}

// AssertAllFreed panics with a *LeakError if anything is still live. The
// ledger storage is released either way, so the allocator can be reused
// after a recovered failure.
func (t *Testing) AssertAllFreed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	leaks := t.rec.Leaks()
	t.rec.Cleanup()
	if len(leaks) > 0 {
		logger.Error("testing: leaks detected", "count", len(leaks))
		panic(&LeakError{Leaks: leaks})
	}
}
