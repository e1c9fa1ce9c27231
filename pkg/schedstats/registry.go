package schedstats

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

var (
	// ErrDuplicateShard is returned when a shard id is registered twice.
	ErrDuplicateShard = errors.New("shard already registered")
	// ErrRegistrySealed is returned when registering after Seal.
	ErrRegistrySealed = errors.New("registry is sealed")
)

// Registry maps shard ids to their state. Shards are stored in an arena of
// slots; the mutex guards only the insert, so a worker never locks again
// once it holds its *Shard.
type Registry struct {
	mu     sync.Mutex
	slots  []*Shard
	index  map[int]int
	sealed bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[int]int)}
}

// Register creates the state for shard id reading from stream.
func (r *Registry) Register(id int, stream trace.Stream) (*Shard, error) {
	if stream == nil {
		return nil, fmt.Errorf("shard %d: nil stream", id)
	}
	sh := newShard(id, stream)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return nil, fmt.Errorf("shard %d: %w", id, ErrRegistrySealed)
	}
	if _, ok := r.index[id]; ok {
		return nil, fmt.Errorf("shard %d: %w", id, ErrDuplicateShard)
	}
	r.index[id] = len(r.slots)
	r.slots = append(r.slots, sh)
	return sh, nil
}

// Seal ends registration and returns the read-only view used for
// aggregation. The caller must only seal after every worker has finished
// with its shard; the registry does not wait for them. Seal may be called
// more than once.
func (r *Registry) Seal() *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true

	ids := make([]int, 0, len(r.index))
	for id := range r.index {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	v := &View{ids: ids, shards: make([]*Shard, len(ids))}
	for i, id := range ids {
		v.shards[i] = r.slots[r.index[id]]
	}
	return v
}

// View is a sealed registry, ordered by shard id.
type View struct {
	ids    []int
	shards []*Shard
}

// Len returns the number of registered shards.
func (v *View) Len() int { return len(v.shards) }

// All yields (shard id, shard) pairs in shard id order.
func (v *View) All() iter.Seq2[int, *Shard] {
	return func(yield func(int, *Shard) bool) {
		for i, sh := range v.shards {
			if !yield(v.ids[i], sh) {
				return
			}
		}
	}
}
