package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/heap"
)

// ============================================================================
// Panic Helpers
// ============================================================================

// requireUsagePanic runs fn and requires it to panic with a *UsageError
// wrapping target.
func requireUsagePanic(t *testing.T, target error, fn func()) *UsageError {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.NotNil(t, got, "expected a usage panic wrapping %v", target)
	ue, ok := got.(*UsageError)
	require.True(t, ok, "panic value %T (%v) is not *UsageError", got, got)
	require.True(t, errors.Is(ue, target), "got %v, want %v", ue, target)
	return ue
}

// requireLeakPanic runs fn and requires it to panic with a *LeakError.
func requireLeakPanic(t *testing.T, fn func()) *LeakError {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.NotNil(t, got, "expected a leak panic")
	le, ok := got.(*LeakError)
	require.True(t, ok, "panic value %T (%v) is not *LeakError", got, got)
	return le
}

// ============================================================================
// Construction Helpers
// ============================================================================

// newTestArena builds an arena over a budgeted source so tests can check
// that everything went back to it.
func newTestArena(t testing.TB, opts ArenaOptions) (*Arena, *heap.Limited) {
	t.Helper()
	src := heap.NewLimited(heap.Runtime, 1<<30)
	opts.Source = src
	ar, err := NewArena(opts)
	require.NoError(t, err)
	return ar, src
}

// fill writes a recognizable pattern derived from seed.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// requireFilled checks the pattern written by fill.
func requireFilled(t testing.TB, b []byte, seed byte) {
	t.Helper()
	for i := range b {
		if b[i] != seed+byte(i) {
			require.Failf(t, "pattern mismatch", "byte %d = %#x, want %#x", i, b[i], seed+byte(i))
		}
	}
}
