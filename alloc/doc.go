// Package alloc provides a pluggable memory-allocation layer: one handle type
// over several allocation strategies, selected at runtime.
//
// # Overview
//
// Consumers hold an Allocator, a small value of {kind, context}, and pass it
// by value to anything that needs memory. Every call is routed to the
// strategy picked when the handle was built:
//
//   - Heap: passthrough to a heap.Source (the Go runtime by default)
//   - Null: never allocates; frees are no-ops
//   - Arena: bump allocation from chained blocks, big requests served apart
//   - Recording: heap allocation with a ledger of live allocations
//   - Testing: Recording behind a lock, with deterministic fault injection
//
// # Usage Example
//
//	ar, err := alloc.NewArena(alloc.ArenaOptions{})
//	if err != nil {
//	    return err
//	}
//	a := ar.Allocator()
//
//	b, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	b, err = a.Realloc(b, 100, 200)
//	if err != nil {
//	    return err
//	}
//	a.Free(b, 200)
//
//	// Or drop everything at once.
//	a.FreeAll()
//
// # Sizes
//
// Allocations are []byte. Free and Realloc take the size the memory was
// allocated with; Recording and Testing verify it. GoodSize reports what a
// request would really be granted: 8-byte rounding on Arena, the request
// itself everywhere else.
//
// # Arena
//
// Requests are rounded to 8 bytes. Up to BigThreshold they are bumped off
// the current block; when it runs out a new block is linked ahead of it and
// the old one is frozen. Larger requests get their own memory from the
// source and live in a big-allocation list.
//
// Free only reclaims when it hits the frontier of the current block, so
// LIFO patterns reuse memory. Realloc of the most recent allocation grows
// or shrinks in place. Otherwise the old slot is abandoned until FreeAll.
//
// # Errors
//
// Exhaustion is an ordinary error matching ErrOutOfMemory; the operation
// has no effect. Misuse (using the zero Allocator, FreeAll on Heap or Null,
// freeing with the wrong size, freeing memory the allocator never handed
// out) panics with a *UsageError: the bookkeeping can no longer be trusted,
// so there is nothing sensible to continue with.
//
// # Thread Safety
//
// Arena and Recording are single-owner. Testing locks around every call and
// may be shared; TheTesting returns a process-wide instance.
package alloc
