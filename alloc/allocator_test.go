package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/heap"
)

// allKinds returns one handle of every usable kind.
func allKinds(t *testing.T) map[string]Allocator {
	t.Helper()
	ar, err := NewArena(ArenaOptions{})
	require.NoError(t, err)
	return map[string]Allocator{
		"heap":      Heap(),
		"null":      Null(),
		"arena":     ar.Allocator(),
		"recording": NewRecording(RecordingOptions{}).Allocator(),
		"testing":   NewTesting(RecordingOptions{}).Allocator(),
	}
}

func TestAllocator_UnsetPanics(t *testing.T) {
	var a Allocator
	require.Equal(t, KindUnset, a.Kind())

	ops := map[string]func(){
		"alloc":             func() { _, _ = a.Alloc(8) },
		"zalloc":            func() { _, _ = a.Zalloc(8) },
		"realloc":           func() { _, _ = a.Realloc(nil, 0, 8) },
		"free":              func() { a.Free(nil, 0) },
		"free_all":          func() { a.FreeAll() },
		"good_size":         func() { _ = a.GoodSize(8) },
		"supports_free_all": func() { _ = a.SupportsFreeAll() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			ue := requireUsagePanic(t, ErrUnset, op)
			assert.Equal(t, name, ue.Op)
			assert.Equal(t, KindUnset, ue.Kind)
		})
	}

	// A bad size must not mask the missing configuration.
	requireUsagePanic(t, ErrUnset, func() { _, _ = a.Alloc(-1) })
	requireUsagePanic(t, ErrUnset, func() { _, _ = a.Realloc(nil, -1, 8) })
	requireUsagePanic(t, ErrUnset, func() { _ = a.GoodSize(-8) })
}

func TestAllocator_FreeAllSupport(t *testing.T) {
	want := map[string]bool{
		"heap": false, "null": false, "arena": true, "recording": true, "testing": true,
	}
	for name, a := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want[name], a.SupportsFreeAll())
			if !want[name] {
				requireUsagePanic(t, ErrUnsupported, a.FreeAll)
			} else {
				assert.NotPanics(t, a.FreeAll)
			}
		})
	}
}

func TestAllocator_NegativeSizePanics(t *testing.T) {
	for name, a := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			requireUsagePanic(t, ErrBadSize, func() { _, _ = a.Alloc(-1) })
			requireUsagePanic(t, ErrBadSize, func() { _, _ = a.Realloc(nil, 0, -5) })
			requireUsagePanic(t, ErrBadSize, func() { _ = a.GoodSize(-1) })
		})
	}
}

func TestAllocator_RoundTrip(t *testing.T) {
	for name, a := range allKinds(t) {
		if name == "null" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			b, err := a.Alloc(100)
			require.NoError(t, err)
			require.Len(t, b, 100)
			fill(b, 1)

			b, err = a.Realloc(b, 100, 300)
			require.NoError(t, err)
			require.Len(t, b, 300)
			requireFilled(t, b[:100], 1)

			b, err = a.Realloc(b, 300, 50)
			require.NoError(t, err)
			require.Len(t, b, 50)
			requireFilled(t, b, 1)

			a.Free(b, 50)

			z, err := a.Zalloc(64)
			require.NoError(t, err)
			for i, v := range z {
				require.Zero(t, v, "byte %d", i)
			}
			a.Free(z, 64)
		})
	}
}

func TestAllocator_ReallocToZeroFrees(t *testing.T) {
	rec := NewRecording(RecordingOptions{})
	a := rec.Allocator()

	b, err := a.Alloc(40)
	require.NoError(t, err)
	b, err = a.Realloc(b, 40, 0)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Zero(t, rec.Live(), "realloc to zero must release the allocation")

	h, err := Heap().Realloc(nil, 0, 16)
	require.NoError(t, err)
	h, err = Heap().Realloc(h, 16, 0)
	require.NoError(t, err)
	assert.Nil(t, h)

	src := heap.NewLimited(heap.Runtime, 1024)
	h, err = HeapFrom(src).Realloc(nil, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Zero(t, src.InUse(), "nothing is allocated for a zero-size realloc of nil")
}

func TestAllocator_ReallocToZeroEveryKind(t *testing.T) {
	for name, a := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			got, err := a.Realloc(nil, 0, 0)
			require.NoError(t, err)
			assert.Nil(t, got)

			if name == "null" {
				got, err = a.Realloc([]byte{1, 2}, 2, 0)
				require.NoError(t, err)
				assert.Nil(t, got)
				return
			}
			b, err := a.Alloc(24)
			require.NoError(t, err)
			got, err = a.Realloc(b, 24, 0)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}

	rec := NewRecording(RecordingOptions{})
	_, err := rec.Allocator().Realloc(nil, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, rec.Live(), "no ledger entry for a zero-size realloc of nil")
}

func TestAllocator_Null(t *testing.T) {
	a := Null()

	b, err := a.Alloc(10)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrNoStorage)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	b, err = a.Zalloc(10)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	b, err = a.Realloc(nil, 0, 10)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	assert.NotPanics(t, func() { a.Free([]byte{1}, 1) })
	assert.Equal(t, 13, a.GoodSize(13))
}

func TestAllocator_HeapExhaustion(t *testing.T) {
	src := heap.NewLimited(heap.Runtime, 64)
	a := HeapFrom(src)

	b, err := a.Alloc(64)
	require.NoError(t, err)

	_, err = a.Alloc(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.True(t, errors.Is(err, heap.ErrExhausted))

	_, err = a.Realloc(b, 64, 128)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 64, src.InUse(), "failed realloc must leave the original in place")

	a.Free(b, 64)
	assert.Zero(t, src.InUse())
}

func TestAllocator_GoodSize(t *testing.T) {
	for name, a := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			for _, s := range []int{0, 1, 7, 8, 9, 15, 4000, 4001, 1 << 20} {
				g := a.GoodSize(s)
				assert.GreaterOrEqual(t, g, s)
				assert.Equal(t, g, a.GoodSize(g), "GoodSize must be idempotent for %d", s)
			}
		})
	}

	ar, err := NewArena(ArenaOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, ar.Allocator().GoodSize(1))
	assert.Equal(t, 4008, ar.Allocator().GoodSize(4001))
}

func TestDup(t *testing.T) {
	rec := NewRecording(RecordingOptions{})
	a := rec.Allocator()

	src := []byte("hello, arena")
	b, err := Dup(a, src)
	require.NoError(t, err)
	assert.Equal(t, src, b)
	src[0] = 'H'
	assert.Equal(t, byte('h'), b[0], "Dup must copy, not alias")
	a.Free(b, len(src))

	s, err := DupString(a, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0}, s)
	a.Free(s, 4)

	rec.AssertAllFreed()
}

func TestDup_Failure(t *testing.T) {
	_, err := Dup(Null(), []byte("x"))
	assert.ErrorIs(t, err, ErrOutOfMemory)
	_, err = DupString(Null(), "x")
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "unset", KindUnset.String())
	assert.Equal(t, "arena", KindArena.String())
	assert.Equal(t, "testing", KindTesting.String())
	assert.Equal(t, "invalid", Kind(99).String())
	assert.Equal(t, "Allocator(heap)", Heap().String())
}

func TestUsageError_Message(t *testing.T) {
	e := &UsageError{Op: "free", Kind: KindRecording, Addr: 0x1000, Size: 8, Recorded: 16, Err: ErrWrongSize}
	assert.Equal(t,
		"alloc: size does not match recorded allocation: free on recording allocator (addr=0x1000 size=8 recorded=16)",
		e.Error())
	assert.ErrorIs(t, e, ErrWrongSize)
}
