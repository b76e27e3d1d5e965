// Package heap provides the backing memory sources that memkit's allocators
// draw from.
//
// # Overview
//
// A Source is the process heap primitive: it hands out and takes back whole
// byte regions with explicit sizes. Every allocator in package alloc sits on
// top of exactly one Source.
//
//   - Runtime: the Go runtime allocator. Free is a no-op; the garbage
//     collector reclaims memory once no slice references it.
//   - NewMmap: anonymous private mappings (unix only). Regions are rounded
//     to whole pages and unmapped by Free. Other platforms get Runtime.
//   - NewLimited: wraps another Source with a byte budget. Requests beyond
//     the budget fail with ErrExhausted, which is how tests simulate memory
//     exhaustion. InUse doubles as an external leak check.
//
// # Explicit sizes
//
// Realloc and Free receive the size the region was allocated with. Sources
// that track nothing per region (mmap) rely on it to recover the mapping
// length, so passing a wrong size is undefined behaviour.
package heap
