package alloc

// Kind selects the strategy an Allocator dispatches to.
type Kind uint8

const (
	// KindUnset is the zero Kind. Every operation on it panics.
	KindUnset Kind = iota
	// KindHeap passes requests straight through to a heap.Source.
	KindHeap
	// KindArena bump-allocates from chained blocks.
	KindArena
	// KindNull never allocates.
	KindNull
	// KindRecording tracks every live allocation in a ledger.
	KindRecording
	// KindTesting is Recording behind a lock with fault injection.
	KindTesting
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindHeap:
		return "heap"
	case KindArena:
		return "arena"
	case KindNull:
		return "null"
	case KindRecording:
		return "recording"
	case KindTesting:
		return "testing"
	default:
		return "invalid"
	}
}

// ArenaStats is a read-only snapshot of an Arena's memory use.
type ArenaStats struct {
	Used       int `json:"used"`        // bytes bumped across all blocks
	Capacity   int `json:"capacity"`    // buffer bytes across all blocks
	BigUsed    int `json:"big_used"`    // bytes held by big allocations
	BigCount   int `json:"big_count"`   // number of big allocations
	BlockCount int `json:"block_count"` // number of blocks in the chain
}
