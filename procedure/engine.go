package procedure

import (
	"github.com/google/uuid"
)

// Logger receives lifecycle traces from the engine. It matches the Printf
// method of internal/logging.Logger and *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// Origin describes how a thread came to exist.
type Origin string

const (
	OriginRoot Origin = "root"
	OriginFork Origin = "fork"
	OriginSync Origin = "sync"
)

// Observer is notified of scheduling activity, typically to feed metrics.
type Observer interface {
	ThreadSpawned(origin Origin)
	ThreadTerminated()
	EventDispatched(scope Scope, resumed int)
	CommandsEmitted(n int)
}

// Status is the observable suspension state of a live thread.
type Status string

const (
	StatusAwaitingLocal  Status = "awaiting-local"
	StatusAwaitingGlobal Status = "awaiting-global"
	StatusJoining        Status = "joining"
)

// ThreadInfo is a read-only snapshot of a registry entry.
type ThreadInfo struct {
	ID      ThreadID
	Origin  Origin
	Status  Status
	Parent  ThreadID
	Pending int
}

// Option customizes an Engine.
type Option func(*settings)

type settings struct {
	logger   Logger
	observer Observer
	runID    string
}

// WithLogger traces thread lifecycle to logger.
func WithLogger(logger Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver reports scheduling activity to observer.
func WithObserver(observer Observer) Option {
	return func(s *settings) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithRunID overrides the generated run identifier used in traces.
func WithRunID(id string) Option {
	return func(s *settings) {
		if id != "" {
			s.runID = id
		}
	}
}

type thread[M, C, G, L any] struct {
	id     ThreadID
	origin Origin
	// parent is set for SyncAll members only; forks are not tracked.
	parent  ThreadID
	cont    []Procedure[M, C, G, L]
	state   threadState
	pending map[ThreadID]struct{}
	// epoch increments whenever the continuation changes.
	epoch uint64
}

// Engine owns the shared memory and the registry of live threads. It is
// single-threaded: callers must not use it from more than one goroutine at a
// time.
type Engine[M, C, G, L any] struct {
	mem      M
	threads  registry[*thread[M, C, G, L]]
	root     ThreadID
	ready    []ThreadID
	cmds     []Command[C]
	stepping bool
	settings settings
}

// Cue creates an engine holding mem, starts root as its first thread and runs
// it (and anything it spawns) until every thread has suspended or
// terminated. The returned commands are for the caller to execute.
func Cue[M, C, G, L any](mem M, root Procedure[M, C, G, L], opts ...Option) (*Engine[M, C, G, L], []Command[C]) {
	e := &Engine[M, C, G, L]{mem: mem}
	for _, opt := range opts {
		if opt != nil {
			opt(&e.settings)
		}
	}
	if e.settings.runID == "" {
		e.settings.runID = uuid.NewString()
	}
	e.begin()
	defer e.end()
	e.root = e.spawn(root, OriginRoot, ThreadID{})
	e.drain()
	return e, e.flush()
}

// Dispatch delivers ev and runs every thread it wakes until they suspend or
// terminate. Local events go to the addressed thread only and are dropped if
// that thread is gone or not awaiting a local event. Global events are
// offered to each thread awaiting one, in registry (creation) order, with
// memory changes from earlier threads visible to later ones.
func (e *Engine[M, C, G, L]) Dispatch(ev Event[G, L]) []Command[C] {
	e.begin()
	defer e.end()
	resumed := 0
	switch ev.scope {
	case ScopeLocal:
		if e.deliverLocal(ev.thread, ev.local) {
			resumed = 1
		}
	case ScopeGlobal:
		resumed = e.broadcast(ev.global)
	default:
		return nil
	}
	if obs := e.settings.observer; obs != nil {
		obs.EventDispatched(ev.scope, resumed)
	}
	return e.flush()
}

// Memory returns the current shared memory.
func (e *Engine[M, C, G, L]) Memory() M {
	return e.mem
}

// Root returns the identifier minted for the root thread.
func (e *Engine[M, C, G, L]) Root() ThreadID {
	return e.root
}

// RunID identifies this engine instance in traces.
func (e *Engine[M, C, G, L]) RunID() string {
	return e.settings.runID
}

// Len returns the number of live threads.
func (e *Engine[M, C, G, L]) Len() int {
	return e.threads.len()
}

// Done reports whether every thread has terminated.
func (e *Engine[M, C, G, L]) Done() bool {
	return e.threads.len() == 0
}

// Status reports the suspension state of a live thread.
func (e *Engine[M, C, G, L]) Status(id ThreadID) (Status, bool) {
	t, ok := e.threads.get(id)
	if !ok {
		return "", false
	}
	return t.status(), true
}

// Threads lists live threads in registry order.
func (e *Engine[M, C, G, L]) Threads() []ThreadInfo {
	ids := e.threads.ids()
	out := make([]ThreadInfo, 0, len(ids))
	for _, id := range ids {
		t, ok := e.threads.get(id)
		if !ok {
			continue
		}
		out = append(out, ThreadInfo{
			ID:      id,
			Origin:  t.origin,
			Status:  t.status(),
			Parent:  t.parent,
			Pending: len(t.pending),
		})
	}
	return out
}

func (e *Engine[M, C, G, L]) begin() {
	if e.stepping {
		panic("procedure: engine re-entered while a step is running")
	}
	e.stepping = true
}

func (e *Engine[M, C, G, L]) end() {
	e.stepping = false
}

func (e *Engine[M, C, G, L]) deliverLocal(id ThreadID, ev L) bool {
	t, ok := e.threads.get(id)
	if !ok {
		e.tracef("drop local event for %s: no such thread", id)
		return false
	}
	if t.state != stateAwaitLocal {
		e.tracef("drop local event for %s: thread is %s", id, t.status())
		return false
	}
	cont, matched := resumeLocal(t.cont, ev, e.mem)
	if !matched {
		return false
	}
	e.resume(t, cont)
	return true
}

func (e *Engine[M, C, G, L]) broadcast(ev G) int {
	type target struct {
		id    ThreadID
		epoch uint64
	}
	var targets []target
	for _, id := range e.threads.ids() {
		if t, ok := e.threads.get(id); ok && t.state == stateAwaitGlobal {
			targets = append(targets, target{id: id, epoch: t.epoch})
		}
	}
	resumed := 0
	for _, tg := range targets {
		t, ok := e.threads.get(tg.id)
		if !ok || t.epoch != tg.epoch || t.state != stateAwaitGlobal {
			continue
		}
		cont, matched := resumeGlobal(t.cont, ev, e.mem)
		if !matched {
			continue
		}
		e.resume(t, cont)
		resumed++
	}
	return resumed
}

// resume replaces t's continuation with cont and runs the cycle to quiescence.
func (e *Engine[M, C, G, L]) resume(t *thread[M, C, G, L], cont []Procedure[M, C, G, L]) {
	e.tracef("resume %s", t.id)
	t.cont = cont
	t.state = stateReady
	t.epoch++
	e.ready = append(e.ready, t.id)
	e.drain()
}

func (e *Engine[M, C, G, L]) spawn(p Procedure[M, C, G, L], origin Origin, parent ThreadID) ThreadID {
	t := &thread[M, C, G, L]{
		origin: origin,
		parent: parent,
		cont:   []Procedure[M, C, G, L]{p},
		state:  stateReady,
	}
	t.id = e.threads.insert(t)
	e.ready = append(e.ready, t.id)
	if parent.IsZero() {
		e.tracef("spawn %s (%s)", t.id, origin)
	} else {
		e.tracef("spawn %s (%s) under %s", t.id, origin, parent)
	}
	if obs := e.settings.observer; obs != nil {
		obs.ThreadSpawned(origin)
	}
	return t.id
}

// drain runs queued threads in FIFO order until none is left. Children are
// queued behind the thread that spawned them, so they run after it suspends
// but within the same cycle.
func (e *Engine[M, C, G, L]) drain() {
	for len(e.ready) > 0 {
		id := e.ready[0]
		e.ready = e.ready[1:]
		t, ok := e.threads.get(id)
		if !ok || t.state != stateReady {
			continue
		}
		e.apply(t, interpret(t.cont, e.mem))
	}
	e.ready = nil
}

func (e *Engine[M, C, G, L]) apply(t *thread[M, C, G, L], res stepResult[M, C, G, L]) {
	e.mem = res.mem
	for _, cmd := range res.cmds {
		e.cmds = append(e.cmds, Command[C]{Thread: t.id, Value: cmd})
	}
	t.cont = res.cont
	t.state = res.state
	t.epoch++
	for _, child := range res.forks {
		e.spawn(child, OriginFork, ThreadID{})
	}
	switch res.state {
	case stateJoining:
		t.pending = make(map[ThreadID]struct{}, len(res.group))
		for _, child := range res.group {
			id := e.spawn(child, OriginSync, t.id)
			t.pending[id] = struct{}{}
		}
		e.tracef("join %s on %d threads", t.id, len(t.pending))
	case stateDone:
		e.terminate(t)
	}
}

func (e *Engine[M, C, G, L]) terminate(t *thread[M, C, G, L]) {
	if !e.threads.remove(t.id) {
		return
	}
	t.cont = nil
	e.tracef("terminate %s", t.id)
	if obs := e.settings.observer; obs != nil {
		obs.ThreadTerminated()
	}
	if t.parent.IsZero() {
		return
	}
	parent, ok := e.threads.get(t.parent)
	if !ok || parent.state != stateJoining {
		return
	}
	delete(parent.pending, t.id)
	if len(parent.pending) > 0 {
		return
	}
	parent.pending = nil
	parent.state = stateReady
	parent.epoch++
	e.tracef("release %s", parent.id)
	e.ready = append(e.ready, parent.id)
}

func (e *Engine[M, C, G, L]) flush() []Command[C] {
	cmds := e.cmds
	e.cmds = nil
	if len(cmds) > 0 {
		if obs := e.settings.observer; obs != nil {
			obs.CommandsEmitted(len(cmds))
		}
	}
	return cmds
}

func (e *Engine[M, C, G, L]) tracef(format string, args ...any) {
	if e.settings.logger == nil {
		return
	}
	e.settings.logger.Printf("procedure: run=%s "+format, append([]any{e.settings.runID}, args...)...)
}

func (t *thread[M, C, G, L]) status() Status {
	switch t.state {
	case stateAwaitLocal:
		return StatusAwaitingLocal
	case stateAwaitGlobal:
		return StatusAwaitingGlobal
	case stateJoining:
		return StatusJoining
	default:
		return ""
	}
}
