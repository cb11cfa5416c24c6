package procedure

// Lens focuses on a part B of a larger value A. Lawful lenses satisfy
// Get(Set(b, a)) == b and Set(Get(a), a) == a.
type Lens[A, B any] struct {
	Get func(A) B
	Set func(B, A) A
}

// Modify lifts f on the focus to a function on the whole.
func (l Lens[A, B]) Modify(f func(B) B) func(A) A {
	return func(a A) A {
		return l.Set(f(l.Get(a)), a)
	}
}

// IdentityLens focuses on the whole value.
func IdentityLens[A any]() Lens[A, A] {
	return Lens[A, A]{
		Get: func(a A) A { return a },
		Set: func(b, _ A) A { return b },
	}
}

// ComposeLens focuses through outer, then inner.
func ComposeLens[A, B, D any](outer Lens[A, B], inner Lens[B, D]) Lens[A, D] {
	return Lens[A, D]{
		Get: func(a A) D { return inner.Get(outer.Get(a)) },
		Set: func(d D, a A) A { return outer.Set(inner.Set(d, outer.Get(a)), a) },
	}
}

// Prism carries an Inner event inside an Outer event type. Unwrap reports
// false for outer events that do not belong to the inner type.
type Prism[Outer, Inner any] struct {
	Wrap   func(Inner) Outer
	Unwrap func(Outer) (Inner, bool)
}

// Accept is the narrowing function that lets every event through.
func Accept[E any](ev E) (E, bool) {
	return ev, true
}

// Layer adapts a procedure written for memory MB, commands CB and events
// (GB, LB) to run against MA, CA, GA and LA. Every field is required.
type Layer[MA, MB, CA, CB, GA, GB, LA, LB any] struct {
	Memory  Lens[MA, MB]
	Command func(CB) CA
	Global  func(GA) (GB, bool)
	Local   func(LA) (LB, bool)
}

// Embed rewrites p through layer. Modify and Push see only the focused memory;
// Await and AwaitGlobal only see events the layer's narrowing accepts and stay
// suspended on the rest. Continuations produced by predicates and fork bodies
// are rewritten lazily when they are produced.
func Embed[MA, MB, CA, CB, GA, GB, LA, LB any](layer Layer[MA, MB, CA, CB, GA, GB, LA, LB], p Procedure[MB, CB, GB, LB]) Procedure[MA, CA, GA, LA] {
	switch {
	case layer.Memory.Get == nil || layer.Memory.Set == nil:
		panic("procedure: Embed requires Memory.Get and Memory.Set")
	case layer.Command == nil:
		panic("procedure: Embed requires Command")
	case layer.Global == nil:
		panic("procedure: Embed requires Global")
	case layer.Local == nil:
		panic("procedure: Embed requires Local")
	}
	return layer.embed(p)
}

func (ly Layer[MA, MB, CA, CB, GA, GB, LA, LB]) embed(p Procedure[MB, CB, GB, LB]) Procedure[MA, CA, GA, LA] {
	switch p.kind {
	case KindBatch, KindSyncAll:
		steps := make([]Procedure[MA, CA, GA, LA], len(p.steps))
		for i, step := range p.steps {
			steps[i] = ly.embed(step)
		}
		return Procedure[MA, CA, GA, LA]{kind: p.kind, steps: steps}
	case KindModify:
		f := p.modify
		return Procedure[MA, CA, GA, LA]{kind: KindModify, modify: ly.Memory.Modify(f)}
	case KindPush:
		f := p.push
		return Procedure[MA, CA, GA, LA]{kind: KindPush, push: func(a MA) CA {
			return ly.Command(f(ly.Memory.Get(a)))
		}}
	case KindAwait:
		f := p.local
		return Procedure[MA, CA, GA, LA]{kind: KindAwait, local: func(ev LA, a MA) (Procedure[MA, CA, GA, LA], bool) {
			inner, ok := ly.Local(ev)
			if !ok {
				return Procedure[MA, CA, GA, LA]{}, false
			}
			next, ok := f(inner, ly.Memory.Get(a))
			if !ok {
				return Procedure[MA, CA, GA, LA]{}, false
			}
			return ly.embed(next), true
		}}
	case KindAwaitGlobal:
		f := p.global
		return Procedure[MA, CA, GA, LA]{kind: KindAwaitGlobal, global: func(ev GA, a MA) (Procedure[MA, CA, GA, LA], bool) {
			inner, ok := ly.Global(ev)
			if !ok {
				return Procedure[MA, CA, GA, LA]{}, false
			}
			next, ok := f(inner, ly.Memory.Get(a))
			if !ok {
				return Procedure[MA, CA, GA, LA]{}, false
			}
			return ly.embed(next), true
		}}
	case KindFork:
		f := p.fork
		return Procedure[MA, CA, GA, LA]{kind: KindFork, fork: func() Procedure[MA, CA, GA, LA] {
			return ly.embed(f())
		}}
	case KindQuit:
		return Procedure[MA, CA, GA, LA]{kind: KindQuit}
	default:
		return Procedure[MA, CA, GA, LA]{}
	}
}

// LiftMemory runs p against a part of a larger memory.
func LiftMemory[A, B, C, G, L any](lens Lens[A, B], p Procedure[B, C, G, L]) Procedure[A, C, G, L] {
	return Embed(Layer[A, B, C, C, G, G, L, L]{
		Memory:  lens,
		Command: passCommand[C],
		Global:  Accept[G],
		Local:   Accept[L],
	}, p)
}

// LiftLocal runs p inside a parent whose local events wrap p's. Only events
// the prism unwraps reach p's Await nodes. Commands are left alone; use
// MapCommand (or Embed) when the command type depends on the event type.
func LiftLocal[M, C, G, LA, LB any](prism Prism[LA, LB], p Procedure[M, C, G, LB]) Procedure[M, C, G, LA] {
	return Embed(Layer[M, M, C, C, G, G, LA, LB]{
		Memory:  IdentityLens[M](),
		Command: passCommand[C],
		Global:  Accept[G],
		Local:   prism.Unwrap,
	}, p)
}

// LiftGlobal lets p observe only the parent's global events that narrow
// accepts. Rejected events leave p's AwaitGlobal armed.
func LiftGlobal[M, C, GA, GB, L any](narrow func(GA) (GB, bool), p Procedure[M, C, GB, L]) Procedure[M, C, GA, L] {
	return Embed(Layer[M, M, C, C, GA, GB, L, L]{
		Memory:  IdentityLens[M](),
		Command: passCommand[C],
		Global:  narrow,
		Local:   Accept[L],
	}, p)
}

// MapCommand transforms every command p pushes.
func MapCommand[M, CA, CB, G, L any](f func(CB) CA, p Procedure[M, CB, G, L]) Procedure[M, CA, G, L] {
	return Embed(Layer[M, M, CA, CB, G, G, L, L]{
		Memory:  IdentityLens[M](),
		Command: f,
		Global:  Accept[G],
		Local:   Accept[L],
	}, p)
}

func passCommand[C any](c C) C {
	return c
}
