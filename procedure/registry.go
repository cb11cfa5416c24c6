package procedure

import "fmt"

// ThreadID addresses a live thread. It is a handle into the engine's arena:
// the slot index plus the generation the slot had when the thread was
// created. The zero value never identifies a thread, and a handle kept past
// its thread's termination never matches the slot's next occupant.
type ThreadID struct {
	index uint32
	gen   uint32
}

// IsZero reports whether id is the zero handle.
func (id ThreadID) IsZero() bool {
	return id.gen == 0
}

func (id ThreadID) String() string {
	if id.IsZero() {
		return "t-"
	}
	return fmt.Sprintf("t%d.%d", id.index, id.gen)
}

type slot[T any] struct {
	gen   uint32
	live  bool
	value T
}

// registry is an arena of values addressed by generation-checked handles.
// order keeps live handles in creation order, which is also the order global
// events are broadcast in.
type registry[T any] struct {
	slots []slot[T]
	free  []uint32
	order []ThreadID
}

func (r *registry[T]) insert(value T) ThreadID {
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot[T]{})
	}
	s := &r.slots[index]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.live = true
	s.value = value
	id := ThreadID{index: index, gen: s.gen}
	r.order = append(r.order, id)
	return id
}

func (r *registry[T]) get(id ThreadID) (T, bool) {
	var zero T
	if id.IsZero() || int(id.index) >= len(r.slots) {
		return zero, false
	}
	s := r.slots[id.index]
	if !s.live || s.gen != id.gen {
		return zero, false
	}
	return s.value, true
}

func (r *registry[T]) remove(id ThreadID) bool {
	if _, ok := r.get(id); !ok {
		return false
	}
	var zero T
	s := &r.slots[id.index]
	s.live = false
	s.value = zero
	r.free = append(r.free, id.index)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry[T]) len() int {
	return len(r.order)
}

func (r *registry[T]) ids() []ThreadID {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]ThreadID, len(r.order))
	copy(out, r.order)
	return out
}
