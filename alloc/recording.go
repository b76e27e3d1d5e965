package alloc

import (
	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/logger"
)

// initialLedgerCapacity is the number of slots the ledger starts with; it
// doubles whenever it fills up.
const initialLedgerCapacity = 32

// RecordingOptions configures a Recording (and the Recording inside a Testing).
type RecordingOptions struct {
	// Source backs every allocation. Default: heap.Runtime.
	Source heap.Source

	// Backtraces captures the allocation site of every allocation so that
	// leak reports can say where leaked memory came from. Costly.
	Backtraces bool
}

// Recording wraps a heap source with a ledger of live allocations. This adds
// FreeAll and leak checks to memory that otherwise has neither, and turns
// wrong-size or untracked frees into immediate panics.
//
// The ledger is stored as parallel slices; a nil slot is a freed allocation
// and count is the high-water mark of slots in use. A Recording is not safe
// for concurrent use; see Testing.
type Recording struct {
	src        heap.Source
	backtraces bool

	addrs  [][]byte
	sizes  []int
	traces [][]uintptr
	count  int
}

// NewRecording creates an empty Recording.
func NewRecording(opts RecordingOptions) *Recording {
	r := &Recording{}
	r.configure(opts)
	return r
}

func (r *Recording) configure(opts RecordingOptions) {
	r.src = opts.Source
	if r.src == nil {
		r.src = heap.Runtime
	}
	r.backtraces = opts.Backtraces
}

// Allocator returns a handle dispatching to r.
func (r *Recording) Allocator() Allocator {
	return Allocator{kind: KindRecording, ctx: r}
}

func (r *Recording) ensureCapacity() {
	if r.count < len(r.addrs) {
		return
	}
	n := initialLedgerCapacity
	if len(r.addrs) > 0 {
		n = len(r.addrs) * 2
	}
	addrs := make([][]byte, n)
	copy(addrs, r.addrs)
	sizes := make([]int, n)
	copy(sizes, r.sizes)
	r.addrs, r.sizes = addrs, sizes
	if r.backtraces {
		traces := make([][]uintptr, n)
		copy(traces, r.traces)
		r.traces = traces
	}
}

func (r *Recording) record(b []byte, size int) {
	r.ensureCapacity()
	i := r.count
	r.count++
	r.addrs[i] = b
	r.sizes[i] = size
	if r.backtraces {
		r.traces[i] = captureTrace()
	}
}

// find scans the ledger from the most recent slot backwards.
func (r *Recording) find(b []byte) int {
	p := addrOf(b)
	for i := r.count - 1; i >= 0; i-- {
		if r.addrs[i] != nil && addrOf(r.addrs[i]) == p {
			return i
		}
	}
	return -1
}

// lookup finds b's slot and checks its size, panicking on either mismatch.
func (r *Recording) lookup(op string, kind Kind, b []byte, size int) int {
	i := r.find(b)
	if i < 0 {
		misuse(&UsageError{Op: op, Kind: kind, Addr: addrOf(b), Size: size, Err: ErrUntracked})
	}
	if r.sizes[i] != size {
		misuse(&UsageError{Op: op, Kind: kind, Addr: addrOf(b), Size: size, Recorded: r.sizes[i], Err: ErrWrongSize})
	}
	return i
}

// vacate empties slot i and trims freed slots off the tail.
func (r *Recording) vacate(i int) {
	r.addrs[i] = nil
	r.sizes[i] = 0
	if r.traces != nil {
		r.traces[i] = nil
	}
	for r.count > 0 && r.addrs[r.count-1] == nil {
		r.count--
	}
}

func (r *Recording) alloc(size int, zero bool) ([]byte, error) {
	b, err := heapAlloc(r.src, size, zero)
	if err != nil {
		return nil, err
	}
	r.record(b, size)
	return b, nil
}

func (r *Recording) free(b []byte, size int) {
	r.freeAs(KindRecording, b, size)
}

func (r *Recording) freeAs(kind Kind, b []byte, size int) {
	if b == nil {
		return
	}
	i := r.lookup("free", kind, b, size)
	r.src.Free(r.addrs[i], size)
	r.vacate(i)
}

func (r *Recording) realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	return r.reallocAs(KindRecording, b, oldSize, newSize)
}

// reallocAs moves b's ledger entry to the reallocated memory. The entry is
// appended as new even when the address is unchanged. On failure the ledger
// is left as it was.
func (r *Recording) reallocAs(kind Kind, b []byte, oldSize, newSize int) ([]byte, error) {
	if b == nil {
		if newSize == 0 {
			return nil, nil
		}
		return r.alloc(newSize, false)
	}
	i := r.lookup("realloc", kind, b, oldSize)
	if newSize == 0 {
		r.src.Free(r.addrs[i], oldSize)
		r.vacate(i)
		return nil, nil
	}
	nb, err := r.src.Realloc(r.addrs[i], oldSize, newSize)
	if err != nil {
		return nil, oom("realloc", newSize, err)
	}
	r.vacate(i)
	r.record(nb, newSize)
	return nb, nil
}

// FreeAll releases every live allocation. The ledger's own storage is kept
// for reuse; see Cleanup.
func (r *Recording) FreeAll() {
	freed := 0
	for i := range r.count {
		if r.addrs[i] == nil {
			continue
		}
		r.src.Free(r.addrs[i], r.sizes[i])
		freed++
	}
	clear(r.addrs[:r.count])
	clear(r.sizes[:r.count])
	if r.traces != nil {
		clear(r.traces[:r.count])
	}
	r.count = 0
	logger.Debug("recording: freed all", "allocations", freed)
}

// Leaks lists every live allocation, oldest first.
func (r *Recording) Leaks() []Leak {
	var leaks []Leak
	for i := range r.count {
		if r.addrs[i] == nil {
			continue
		}
		l := Leak{Addr: addrOf(r.addrs[i]), Size: r.sizes[i]}
		if r.traces != nil {
			l.Stack = formatTrace(r.traces[i])
		}
		leaks = append(leaks, l)
	}
	return leaks
}

// AssertAllFreed panics with a *LeakError if any allocation is still live.
func (r *Recording) AssertAllFreed() {
	if leaks := r.Leaks(); len(leaks) > 0 {
		err := &LeakError{Leaks: leaks}
		logger.Error("recording: leaks detected", "count", len(leaks))
		panic(err)
	}
}

// Live reports the number of live allocations.
func (r *Recording) Live() int {
	n := 0
	for i := range r.count {
		if r.addrs[i] != nil {
			n++
		}
	}
	return n
}

// LiveBytes reports the total size of live allocations.
func (r *Recording) LiveBytes() int {
	n := 0
	for i := range r.count {
		if r.addrs[i] != nil {
			n += r.sizes[i]
		}
	}
	return n
}

// Cleanup releases the ledger's own storage. It does not free tracked
// allocations; call FreeAll first if they should go too.
func (r *Recording) Cleanup() {
	r.addrs, r.sizes, r.traces = nil, nil, nil
	r.count = 0
}
