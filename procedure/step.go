package procedure

// Kind enumerates the primitive step variants.
type Kind uint8

const (
	KindNone Kind = iota
	KindBatch
	KindModify
	KindPush
	KindAwait
	KindAwaitGlobal
	KindFork
	KindSyncAll
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBatch:
		return "batch"
	case KindModify:
		return "modify"
	case KindPush:
		return "push"
	case KindAwait:
		return "await"
	case KindAwaitGlobal:
		return "await-global"
	case KindFork:
		return "fork"
	case KindSyncAll:
		return "sync-all"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Procedure describes a step (or tree of steps) for a thread to execute.
// M is the shared memory type, C the command type, G the global event type
// and L the local event type. The zero value is a no-op.
//
// Procedures are immutable: combining them always builds a new value and
// never touches the inputs.
type Procedure[M, C, G, L any] struct {
	kind   Kind
	steps  []Procedure[M, C, G, L]
	modify func(M) M
	push   func(M) C
	local  func(L, M) (Procedure[M, C, G, L], bool)
	global func(G, M) (Procedure[M, C, G, L], bool)
	fork   func() Procedure[M, C, G, L]
}

// Kind reports which primitive the procedure is.
func (p Procedure[M, C, G, L]) Kind() Kind {
	return p.kind
}

// Steps builds procedures for a fixed set of type parameters. It carries no
// state; declare one per workflow package:
//
//	var step procedure.Steps[Memory, Cmd, Global, Local]
//	root := step.Batch(step.Modify(reset), step.Push(fetch))
type Steps[M, C, G, L any] struct{}

// None does nothing. It is not a termination signal.
func (Steps[M, C, G, L]) None() Procedure[M, C, G, L] {
	return Procedure[M, C, G, L]{}
}

// Batch runs steps in order, then continues with whatever follows it.
func (Steps[M, C, G, L]) Batch(steps ...Procedure[M, C, G, L]) Procedure[M, C, G, L] {
	switch len(steps) {
	case 0:
		return Procedure[M, C, G, L]{}
	case 1:
		return steps[0]
	}
	return Procedure[M, C, G, L]{kind: KindBatch, steps: cloneSteps(steps)}
}

// Sequence is an alias for Batch.
func (s Steps[M, C, G, L]) Sequence(steps ...Procedure[M, C, G, L]) Procedure[M, C, G, L] {
	return s.Batch(steps...)
}

// Modify replaces the shared memory with f(memory). The new value is visible
// to the next step immediately.
func (Steps[M, C, G, L]) Modify(f func(M) M) Procedure[M, C, G, L] {
	if f == nil {
		return Procedure[M, C, G, L]{}
	}
	return Procedure[M, C, G, L]{kind: KindModify, modify: f}
}

// Push computes a command from the current memory and queues it for the
// caller. It does not suspend.
func (Steps[M, C, G, L]) Push(f func(M) C) Procedure[M, C, G, L] {
	if f == nil {
		return Procedure[M, C, G, L]{}
	}
	return Procedure[M, C, G, L]{kind: KindPush, push: f}
}

// Await suspends the thread until a local event addressed to it makes f
// report true. The returned procedure runs in place of the Await node; when f
// reports false the thread stays suspended on the same predicate.
func (Steps[M, C, G, L]) Await(f func(L, M) (Procedure[M, C, G, L], bool)) Procedure[M, C, G, L] {
	if f == nil {
		f = func(L, M) (Procedure[M, C, G, L], bool) { return Procedure[M, C, G, L]{}, false }
	}
	return Procedure[M, C, G, L]{kind: KindAwait, local: f}
}

// AwaitGlobal is Await for broadcast global events.
func (Steps[M, C, G, L]) AwaitGlobal(f func(G, M) (Procedure[M, C, G, L], bool)) Procedure[M, C, G, L] {
	if f == nil {
		f = func(G, M) (Procedure[M, C, G, L], bool) { return Procedure[M, C, G, L]{}, false }
	}
	return Procedure[M, C, G, L]{kind: KindAwaitGlobal, global: f}
}

// AwaitFor suspends until a local event satisfies match, then continues.
func (s Steps[M, C, G, L]) AwaitFor(match func(L, M) bool) Procedure[M, C, G, L] {
	if match == nil {
		return s.Await(nil)
	}
	return s.Await(func(ev L, mem M) (Procedure[M, C, G, L], bool) {
		return Procedure[M, C, G, L]{}, match(ev, mem)
	})
}

// AwaitGlobalFor suspends until a global event satisfies match, then continues.
func (s Steps[M, C, G, L]) AwaitGlobalFor(match func(G, M) bool) Procedure[M, C, G, L] {
	if match == nil {
		return s.AwaitGlobal(nil)
	}
	return s.AwaitGlobal(func(ev G, mem M) (Procedure[M, C, G, L], bool) {
		return Procedure[M, C, G, L]{}, match(ev, mem)
	})
}

// Fork starts f() as an independent thread. The forking thread carries on
// with the next step without waiting for the child.
func (Steps[M, C, G, L]) Fork(f func() Procedure[M, C, G, L]) Procedure[M, C, G, L] {
	if f == nil {
		return Procedure[M, C, G, L]{}
	}
	return Procedure[M, C, G, L]{kind: KindFork, fork: f}
}

// SyncAll starts one thread per procedure and blocks the current thread until
// every one of them has terminated.
func (Steps[M, C, G, L]) SyncAll(children ...Procedure[M, C, G, L]) Procedure[M, C, G, L] {
	if len(children) == 0 {
		return Procedure[M, C, G, L]{}
	}
	return Procedure[M, C, G, L]{kind: KindSyncAll, steps: cloneSteps(children)}
}

// Quit terminates the current thread, discarding everything after it.
func (Steps[M, C, G, L]) Quit() Procedure[M, C, G, L] {
	return Procedure[M, C, G, L]{kind: KindQuit}
}

// When returns p if cond holds and None otherwise.
func (Steps[M, C, G, L]) When(cond bool, p Procedure[M, C, G, L]) Procedure[M, C, G, L] {
	if !cond {
		return Procedure[M, C, G, L]{}
	}
	return p
}

func cloneSteps[M, C, G, L any](steps []Procedure[M, C, G, L]) []Procedure[M, C, G, L] {
	out := make([]Procedure[M, C, G, L], len(steps))
	copy(out, steps)
	return out
}
