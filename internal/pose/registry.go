package pose

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// TerminatorID is reserved for the end-of-trace event and can never name
// an entity.
const TerminatorID uint32 = math.MaxUint32

var (
	// ErrInvalidID is returned when registering id 0 or TerminatorID.
	ErrInvalidID = errors.New("invalid entity id")
	// ErrDuplicateID is returned when an id is registered twice.
	ErrDuplicateID = errors.New("duplicate entity id")
)

// Registry maps entity ids to the tracked entities of one scene.
type Registry struct {
	entities map[uint32]*Entity
	order    []uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[uint32]*Entity)}
}

// Add registers e under e.ID.
func (r *Registry) Add(e *Entity) error {
	if e.ID == 0 || e.ID == TerminatorID {
		return fmt.Errorf("entity %q has id %d: %w", e.Name, e.ID, ErrInvalidID)
	}
	if _, ok := r.entities[e.ID]; ok {
		return fmt.Errorf("entity %q has id %d: %w", e.Name, e.ID, ErrDuplicateID)
	}
	r.entities[e.ID] = e
	i := sort.Search(len(r.order), func(i int) bool { return r.order[i] >= e.ID })
	r.order = append(r.order, 0)
	copy(r.order[i+1:], r.order[i:])
	r.order[i] = e.ID
	return nil
}

// Get looks up an entity by id.
func (r *Registry) Get(id uint32) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Each calls fn for every entity in ascending id order.
func (r *Registry) Each(fn func(*Entity)) {
	for _, id := range r.order {
		fn(r.entities[id])
	}
}

// Sample folds every entity's current transform into its trackers.
func (r *Registry) Sample() {
	r.Each((*Entity).Sample)
}

// Touch marks every entity's sampled pose dirty.
func (r *Registry) Touch() {
	r.Each((*Entity).Touch)
}

// Snapshot copies every entity's transform keyed by id.
func (r *Registry) Snapshot() map[uint32]Transform {
	out := make(map[uint32]Transform, len(r.entities))
	for id, e := range r.entities {
		out[id] = e.Transform
	}
	return out
}
