// Package teaprogram runs a procedure engine as a bubbletea model. Commands
// pushed by threads become tea commands whose results are routed back to the
// pushing thread; raw terminal messages and subscription deliveries become
// global events.
package teaprogram

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/threadwork/procedure"
)

// Cmd is an effect whose result is a local event for the thread that pushed
// it. It runs on a bubbletea command goroutine, so it may block.
type Cmd[L any] func() L

// MapCmd converts the event a command produces.
func MapCmd[A, B any](c Cmd[A], f func(A) B) Cmd[B] {
	if c == nil {
		return nil
	}
	return func() B { return f(c()) }
}

// FromTea runs a bubbletea command and converts the message it produces.
func FromTea[L any](c tea.Cmd, convert func(tea.Msg) L) Cmd[L] {
	if c == nil || convert == nil {
		return nil
	}
	return func() L { return convert(c()) }
}

// Tick fires once, d after the command starts running. The timer is created
// when the command runs, not when Tick is called.
func Tick[L any](d time.Duration, fn func(time.Time) L) Cmd[L] {
	return func() L {
		var ev L
		tea.Tick(d, func(t time.Time) tea.Msg {
			ev = fn(t)
			return nil
		})()
		return ev
	}
}

// LiftLocal embeds a thread whose local events (and therefore whose command
// results) are LB inside a parent using LA. Commands are wrapped with
// prism.Wrap and incoming events narrowed with prism.Unwrap.
func LiftLocal[M, G, LA, LB any](prism procedure.Prism[LA, LB], p procedure.Procedure[M, Cmd[LB], G, LB]) procedure.Procedure[M, Cmd[LA], G, LA] {
	return procedure.Embed(procedure.Layer[M, M, Cmd[LA], Cmd[LB], G, G, LA, LB]{
		Memory: procedure.IdentityLens[M](),
		Command: func(c Cmd[LB]) Cmd[LA] {
			return MapCmd(c, prism.Wrap)
		},
		Global: procedure.Accept[G],
		Local:  prism.Unwrap,
	}, p)
}

// LocalMsg carries a command result back to the thread that pushed it.
type LocalMsg[L any] struct {
	Thread procedure.ThreadID
	Event  L
}

// Config describes a program. Root and View are required.
type Config[M, G, L any] struct {
	Memory M
	Root   procedure.Procedure[M, Cmd[L], G, L]
	View   func(M) string
	// Subscriptions lists the event sources the program should listen to for
	// the given memory. It is re-evaluated after every update.
	Subscriptions func(M) []Source[G]
	// Global classifies raw bubbletea messages (keys, window sizes) as global
	// events. Messages it rejects are ignored.
	Global func(tea.Msg) (G, bool)
	// Done ends the program once it reports true.
	Done func(M) bool
	// QuitWhenIdle ends the program once every thread has terminated.
	QuitWhenIdle bool
	Options      []procedure.Option
}

// Program adapts a procedure engine to tea.Model.
type Program[M, G, L any] struct {
	cfg    Config[M, G, L]
	engine *procedure.Engine[M, Cmd[L], G, L]
	subs   subscriptions[G]
	quit   bool
}

// New builds a program. The engine is cued when bubbletea calls Init.
func New[M, G, L any](cfg Config[M, G, L]) *Program[M, G, L] {
	if cfg.View == nil {
		cfg.View = func(M) string { return "" }
	}
	return &Program[M, G, L]{cfg: cfg}
}

// Engine exposes the underlying engine; nil before Init.
func (p *Program[M, G, L]) Engine() *procedure.Engine[M, Cmd[L], G, L] {
	return p.engine
}

// Memory returns the current shared memory (the configured initial memory
// before Init).
func (p *Program[M, G, L]) Memory() M {
	if p.engine == nil {
		return p.cfg.Memory
	}
	return p.engine.Memory()
}

// Init cues the root thread.
func (p *Program[M, G, L]) Init() tea.Cmd {
	engine, cmds := procedure.Cue(p.cfg.Memory, p.cfg.Root, p.cfg.Options...)
	p.engine = engine
	return p.finish(cmds, nil)
}

// Update routes msg into the engine.
func (p *Program[M, G, L]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.engine == nil || p.quit {
		return p, nil
	}
	switch msg := msg.(type) {
	case LocalMsg[L]:
		cmds := p.engine.Dispatch(procedure.Local[G](msg.Thread, msg.Event))
		return p, p.finish(cmds, nil)
	case sourceMsg[G]:
		if !p.subs.accepts(msg) {
			return p, nil
		}
		cmds := p.engine.Dispatch(procedure.Global[G, L](msg.event))
		return p, p.finish(cmds, &msg)
	}
	if p.cfg.Global == nil {
		return p, nil
	}
	ev, ok := p.cfg.Global(msg)
	if !ok {
		return p, nil
	}
	cmds := p.engine.Dispatch(procedure.Global[G, L](ev))
	return p, p.finish(cmds, nil)
}

// View renders the current memory.
func (p *Program[M, G, L]) View() string {
	return p.cfg.View(p.Memory())
}

// finish turns engine commands into tea commands, reconciles subscriptions
// and decides whether the program is done. delivered is the subscription
// message that triggered this update, if any; its source re-arms when it is
// still wanted.
func (p *Program[M, G, L]) finish(cmds []procedure.Command[Cmd[L]], delivered *sourceMsg[G]) tea.Cmd {
	out := make([]tea.Cmd, 0, len(cmds)+2)
	for _, cmd := range cmds {
		if tc := toTea(cmd); tc != nil {
			out = append(out, tc)
		}
	}
	var wanted []Source[G]
	if p.cfg.Subscriptions != nil {
		wanted = p.cfg.Subscriptions(p.engine.Memory())
	}
	out = append(out, p.subs.reconcile(wanted, delivered)...)
	if p.done() {
		p.quit = true
		p.subs.stopAll()
		out = append(out, tea.Quit)
	}
	return tea.Batch(out...)
}

func (p *Program[M, G, L]) done() bool {
	if p.cfg.Done != nil && p.cfg.Done(p.engine.Memory()) {
		return true
	}
	return p.cfg.QuitWhenIdle && p.engine.Done()
}

func toTea[L any](cmd procedure.Command[Cmd[L]]) tea.Cmd {
	if cmd.Value == nil {
		return nil
	}
	run, thread := cmd.Value, cmd.Thread
	return func() tea.Msg {
		return LocalMsg[L]{Thread: thread, Event: run()}
	}
}
