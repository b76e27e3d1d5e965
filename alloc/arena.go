package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/logger"
)

const (
	// ArenaPageSize is the unit DefaultBlockSize is expressed in.
	ArenaPageSize = 4096

	// DefaultBlockSize is the size of one arena block, header included.
	DefaultBlockSize = ArenaPageSize * 128

	// BlockHeaderSize is the per-block bookkeeping (previous link and used
	// counter) subtracted from BlockSize to get the usable buffer capacity.
	BlockHeaderSize = 16
)

// ArenaOptions configures an Arena. The zero value gives the defaults.
type ArenaOptions struct {
	// BlockSize is the size of each block including BlockHeaderSize.
	// Default: DefaultBlockSize.
	BlockSize int

	// BigThreshold is the largest rounded request served from a block;
	// anything larger becomes a standalone big allocation.
	// Default: half the block capacity. Must not exceed the block capacity.
	BigThreshold int

	// Source backs blocks and big allocations. Default: heap.Runtime.
	Source heap.Source
}

// block is one link of the arena chain. Only the head block is bumped;
// older blocks are frozen until FreeAll.
type block struct {
	prev *block
	used int
	buf  []byte
}

// Arena is a bump-pointer allocator over a chain of fixed-capacity blocks,
// with oversized requests served individually from the source and tracked
// in a big-allocation list.
//
// Frees reclaim space only when they hit the frontier of the current block,
// so strictly LIFO use reuses memory and everything else waits for FreeAll.
// An Arena is not safe for concurrent use.
type Arena struct {
	cur *block
	big bigList
	src heap.Source

	capacity  int // usable bytes per block
	threshold int // big allocation cut-off
	blocks    int
}

// NewArena creates an empty Arena. No memory is taken from the source until
// the first allocation.
func NewArena(opts ArenaOptions) (*Arena, error) {
	size := opts.BlockSize
	if size == 0 {
		size = DefaultBlockSize
	}
	if size <= BlockHeaderSize+buf.Alignment {
		return nil, fmt.Errorf("alloc: arena block size %d too small", size)
	}
	capacity := size - BlockHeaderSize

	threshold := opts.BigThreshold
	if threshold == 0 {
		threshold = capacity / 2
	}
	if threshold < 0 || threshold > capacity {
		return nil, fmt.Errorf("alloc: big threshold %d outside (0, %d]", threshold, capacity)
	}

	src := opts.Source
	if src == nil {
		src = heap.Runtime
	}
	return &Arena{src: src, capacity: capacity, threshold: threshold}, nil
}

// Allocator returns a handle dispatching to ar.
func (ar *Arena) Allocator() Allocator {
	return Allocator{kind: KindArena, ctx: ar}
}

// BlockCapacity is the number of usable bytes in each block.
func (ar *Arena) BlockCapacity() int { return ar.capacity }

// BigThreshold is the largest rounded size served from a block.
func (ar *Arena) BigThreshold() int { return ar.threshold }

// arenaRoundUp is the arena's size granularity.
func arenaRoundUp(size int) int {
	return buf.Align8(size)
}

// grow links a fresh block ahead of the current one.
func (ar *Arena) grow() error {
	mem, err := ar.src.Alloc(ar.capacity)
	if err != nil {
		return oom("arena block", ar.capacity, err)
	}
	ar.cur = &block{prev: ar.cur, buf: mem[:ar.capacity]}
	ar.blocks++
	logger.Debug("arena: new block", "blocks", ar.blocks, "capacity", ar.capacity)
	return nil
}

// reserve makes sure the current block has n free bytes.
func (ar *Arena) reserve(n int) error {
	if ar.cur == nil || ar.capacity-ar.cur.used < n {
		return ar.grow()
	}
	return nil
}

// bump carves n rounded bytes off the current block and returns them as a
// slice of length size.
func (ar *Arena) bump(n, size int) []byte {
	blk := ar.cur
	off := blk.used
	blk.used += n
	return blk.buf[off : off+size : off+n]
}

// frontier reports whether b, of rounded size n, ends exactly where the
// current block's free space begins.
func (ar *Arena) frontier(b []byte, n int) bool {
	blk := ar.cur
	if blk == nil || n > blk.used {
		return false
	}
	start := addrOf(blk.buf)
	p := addrOf(b)
	return p >= start && p+uintptr(n) == start+uintptr(blk.used)
}

func (ar *Arena) alloc(size int, zero bool) ([]byte, error) {
	n := arenaRoundUp(size)
	if n > ar.threshold {
		return ar.big.alloc(ar.src, n, size, zero)
	}
	if err := ar.reserve(n); err != nil {
		return nil, err
	}
	b := ar.bump(n, size)
	if zero {
		clear(b[:n])
	}
	return b, nil
}

func (ar *Arena) realloc(b []byte, oldSize, newSize int) ([]byte, error) {
	switch {
	case newSize == 0:
		ar.free(b, oldSize)
		return nil, nil
	case oldSize == 0:
		return ar.alloc(newSize, false)
	}

	on, nn := arenaRoundUp(oldSize), arenaRoundUp(newSize)
	if on == nn {
		return b[:newSize:nn], nil
	}

	oldBig, newBig := on > ar.threshold, nn > ar.threshold
	switch {
	case oldBig && newBig:
		return ar.big.realloc(ar.src, b, on, nn, newSize)

	case oldBig:
		// big -> small: always a shrink.
		nb, err := ar.alloc(newSize, false)
		if err != nil {
			return nil, err
		}
		copy(nb, b[:newSize])
		ar.big.free(ar.src, b, on)
		return nb, nil

	case newBig:
		// small -> big: the old slot is reclaimed only if it was the frontier.
		nb, err := ar.big.alloc(ar.src, nn, newSize, false)
		if err != nil {
			return nil, err
		}
		copy(nb, b[:oldSize])
		ar.free(b, oldSize)
		return nb, nil
	}

	if ar.frontier(b, on) {
		blk := ar.cur
		if used := blk.used - on + nn; used <= ar.capacity {
			off := blk.used - on
			blk.used = used
			return blk.buf[off : off+newSize : off+nn], nil
		}
	}

	// Not the frontier, or the frontier can't grow: the old slot is
	// abandoned until FreeAll.
	if err := ar.reserve(nn); err != nil {
		return nil, err
	}
	nb := ar.bump(nn, newSize)
	copy(nb, b[:min(oldSize, newSize)])
	return nb, nil
}

func (ar *Arena) free(b []byte, size int) {
	if b == nil || size == 0 {
		return
	}
	n := arenaRoundUp(size)
	if n > ar.threshold {
		ar.big.free(ar.src, b, n)
		return
	}
	if ar.cur == nil {
		misuse(&UsageError{Op: "free", Kind: KindArena, Addr: addrOf(b), Size: size, Err: ErrUntracked})
		return
	}
	if ar.frontier(b, n) {
		ar.cur.used -= n
	}
}

// FreeAll returns every block and big allocation to the source and resets
// the arena to its freshly constructed state.
func (ar *Arena) FreeAll() {
	for blk := ar.cur; blk != nil; {
		prev := blk.prev
		ar.src.Free(blk.buf, ar.capacity)
		blk.prev, blk.buf = nil, nil
		blk = prev
	}
	ar.cur = nil
	ar.blocks = 0
	ar.big.freeAll(ar.src)
	logger.Debug("arena: freed all")
}

// Stats walks the block chain and the big list.
func (ar *Arena) Stats() ArenaStats {
	var st ArenaStats
	for blk := ar.cur; blk != nil; blk = blk.prev {
		st.Used += blk.used
		st.Capacity += len(blk.buf)
		st.BlockCount++
	}
	st.BigUsed, st.BigCount = ar.big.stats()
	return st
}
