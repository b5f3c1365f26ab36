package sim

import (
	"slices"
	"sync"
)

// EntityRegistry assigns each object id a stable index. Indexes are never
// reused. Safe for concurrent use.
type EntityRegistry struct {
	mu      sync.RWMutex
	byID    map[string]int
	byIndex map[int]string
	next    int
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{byID: make(map[string]int), byIndex: make(map[int]string)}
}

// Register returns the index for id, assigning one if id is new.
func (r *EntityRegistry) Register(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byID[id]; ok {
		return idx
	}
	idx := r.next
	r.next++
	r.byID[id] = idx
	r.byIndex[idx] = id
	return idx
}

func (r *EntityRegistry) Index(id string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	return idx, ok
}

func (r *EntityRegistry) ID(index int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIndex[index]
	return id, ok
}

func (r *EntityRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.byIndex, idx)
	return true
}

func (r *EntityRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// IDs lists registered ids by ascending index.
func (r *EntityRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := make([]int, 0, len(r.byIndex))
	for i := range r.byIndex {
		idx = append(idx, i)
	}
	slices.Sort(idx)
	out := make([]string, len(idx))
	for i, k := range idx {
		out[i] = r.byIndex[k]
	}
	return out
}
