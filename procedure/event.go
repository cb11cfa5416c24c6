package procedure

// Command is an effect request emitted by a Push step, tagged with the thread
// that pushed it. Results of the effect are expected to come back as a local
// event addressed to Thread.
type Command[C any] struct {
	Thread ThreadID
	Value  C
}

// Scope tells whether an event targets one thread or every global awaiter.
type Scope uint8

const (
	ScopeLocal Scope = iota + 1
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeGlobal:
		return "global"
	default:
		return "invalid"
	}
}

// Event is an externally originated event, already classified as local to a
// thread or global.
type Event[G, L any] struct {
	scope  Scope
	thread ThreadID
	local  L
	global G
}

// Local builds an event addressed to a single thread.
func Local[G, L any](thread ThreadID, ev L) Event[G, L] {
	return Event[G, L]{scope: ScopeLocal, thread: thread, local: ev}
}

// Global builds an event broadcast to every thread awaiting a global event.
func Global[G, L any](ev G) Event[G, L] {
	return Event[G, L]{scope: ScopeGlobal, global: ev}
}

// Scope reports the routing scope. The zero Event has no valid scope and is
// ignored by Dispatch.
func (e Event[G, L]) Scope() Scope {
	return e.scope
}

// Thread returns the addressed thread for local events.
func (e Event[G, L]) Thread() ThreadID {
	return e.thread
}
