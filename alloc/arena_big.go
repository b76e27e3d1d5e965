package alloc

import (
	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/logger"
)

// bigNode is one slot of the big-allocation list. Links are slot indices,
// so the backing memory may move on realloc without invalidating them.
type bigNode struct {
	mem  []byte // len == rounded size
	next int32
	prev int32
}

// bigList is a circular doubly linked list of big allocations stored in a
// slot arena. Slot 0 is the sentinel; vacated slots are reused through
// freeSlots. index maps the address handed to the caller back to its slot.
//
// The zero value is an empty list.
type bigList struct {
	nodes     []bigNode
	freeSlots []int32
	index     map[uintptr]int32
}

func (l *bigList) init() {
	if l.nodes == nil {
		l.nodes = make([]bigNode, 1, 8)
		l.index = make(map[uintptr]int32)
	}
}

// link inserts mem right after the sentinel.
func (l *bigList) link(mem []byte) {
	l.init()
	var i int32
	if n := len(l.freeSlots); n > 0 {
		i = l.freeSlots[n-1]
		l.freeSlots = l.freeSlots[:n-1]
	} else {
		l.nodes = append(l.nodes, bigNode{})
		i = int32(len(l.nodes) - 1)
	}
	head := l.nodes[0].next
	l.nodes[i] = bigNode{mem: mem, prev: 0, next: head}
	l.nodes[head].prev = i
	l.nodes[0].next = i
	l.index[addrOf(mem)] = i
}

func (l *bigList) unlink(i int32) {
	n := &l.nodes[i]
	l.nodes[n.prev].next = n.next
	l.nodes[n.next].prev = n.prev
	delete(l.index, addrOf(n.mem))
	*n = bigNode{}
	l.freeSlots = append(l.freeSlots, i)
}

// lookup finds the slot for b or panics with ErrUntracked.
func (l *bigList) lookup(op string, b []byte, n int) int32 {
	if i, ok := l.index[addrOf(b)]; ok {
		return i
	}
	misuse(&UsageError{Op: op, Kind: KindArena, Addr: addrOf(b), Size: n, Err: ErrUntracked})
	return 0
}

func (l *bigList) alloc(src heap.Source, n, size int, zero bool) ([]byte, error) {
	var (
		mem []byte
		err error
	)
	if zero {
		mem, err = src.Zalloc(n)
	} else {
		mem, err = src.Alloc(n)
	}
	if err != nil {
		return nil, oom("big alloc", n, err)
	}
	l.link(mem)
	logger.Debug("arena: big alloc", "size", n)
	return mem[:size:n], nil
}

// realloc resizes a big allocation in place in the list; only the slot's
// memory and index key change.
func (l *bigList) realloc(src heap.Source, b []byte, on, nn, size int) ([]byte, error) {
	i := l.lookup("realloc", b, on)
	old := l.nodes[i].mem
	mem, err := src.Realloc(old, on, nn)
	if err != nil {
		return nil, oom("big realloc", nn, err)
	}
	if addrOf(mem) != addrOf(old) {
		delete(l.index, addrOf(old))
		l.index[addrOf(mem)] = i
	}
	l.nodes[i].mem = mem[:nn]
	return mem[:size:nn], nil
}

func (l *bigList) free(src heap.Source, b []byte, n int) {
	i := l.lookup("free", b, n)
	mem := l.nodes[i].mem
	l.unlink(i)
	src.Free(mem, len(mem))
}

// freeAll releases every big allocation and empties the list.
func (l *bigList) freeAll(src heap.Source) {
	if l.nodes == nil {
		return
	}
	for i := l.nodes[0].next; i != 0; i = l.nodes[i].next {
		src.Free(l.nodes[i].mem, len(l.nodes[i].mem))
	}
	clear(l.nodes)
	l.nodes = l.nodes[:1]
	l.freeSlots = l.freeSlots[:0]
	clear(l.index)
}

func (l *bigList) stats() (bytes, count int) {
	if l.nodes == nil {
		return 0, 0
	}
	for i := l.nodes[0].next; i != 0; i = l.nodes[i].next {
		bytes += len(l.nodes[i].mem)
		count++
	}
	return bytes, count
}
