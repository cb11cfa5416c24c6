// Package tui is the transfer board: a handful of simulated transfers, each
// written as its own thread against a narrow view of the board, composed into
// one program with a clock, key handling and a final "press any key" prompt.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/threadwork/internal/config"
	"github.com/kingrea/threadwork/procedure"
	"github.com/kingrea/threadwork/teaprogram"
)

const (
	statusRunning  = "transferring"
	statusPaused   = "paused"
	statusComplete = "all transfers complete, press any key to exit"
)

// Board is the shared memory of the demo program.
type Board struct {
	Transfers []Transfer
	Status    string
	Elapsed   int
	Width     int
	Finished  bool
	Quitting  bool
}

// InputKind classifies global input.
type InputKind int

const (
	InputKey InputKind = iota + 1
	InputResize
	InputClock
)

// Input is a global event on the board.
type Input struct {
	Kind  InputKind
	Key   tea.KeyMsg
	Width int
}

// BoardEvent is a local event addressed to one transfer slot.
type BoardEvent struct {
	Slot     int
	Transfer TransferEvent
}

type boardProc = procedure.Procedure[Board, teaprogram.Cmd[BoardEvent], Input, BoardEvent]

var bs procedure.Steps[Board, teaprogram.Cmd[BoardEvent], Input, BoardEvent]

type keyMap struct {
	Pause  key.Binding
	Resume key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Pause:  key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
	Resume: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func keyMatches(in Input, b key.Binding) bool {
	return in.Kind == InputKey && key.Matches(in.Key, b)
}

// Options configures the board program.
type Options struct {
	Tick      time.Duration
	Clock     time.Duration
	Transfers []config.TransferConfig
	Width     int
	// Engine options (logger, observer, run id) are passed through.
	Engine []procedure.Option
}

// OptionsFromConfig maps the demo section of the project config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Tick:      cfg.Project.Demo.Tick,
		Clock:     cfg.Project.Demo.Clock,
		Transfers: cfg.Project.Demo.Transfers,
	}
}

// NewBoard builds the board program.
func NewBoard(opts Options) *teaprogram.Program[Board, Input, BoardEvent] {
	mem := Board{Width: opts.Width}
	for _, tc := range opts.Transfers {
		mem.Transfers = append(mem.Transfers, Transfer{Name: tc.Name, Step: tc.Step})
	}
	clock := opts.Clock
	if clock <= 0 {
		clock = time.Second
	}
	return teaprogram.New(teaprogram.Config[Board, Input, BoardEvent]{
		Memory: mem,
		Root:   boardRoot(len(mem.Transfers), opts.Tick),
		View:   render,
		Global: classify,
		Subscriptions: func(b Board) []teaprogram.Source[Input] {
			if b.Finished || b.Quitting {
				return nil
			}
			return []teaprogram.Source[Input]{clockSource(clock)}
		},
		Done:    func(b Board) bool { return b.Quitting },
		Options: opts.Engine,
	})
}

func boardRoot(n int, tick time.Duration) boardProc {
	transfers := make([]boardProc, n)
	for i := range transfers {
		transfers[i] = embedTransfer(i, tick)
	}
	return bs.Batch(
		bs.Modify(setStatus(statusRunning)),
		bs.Fork(watchKeys),
		bs.Fork(watchResize),
		bs.Fork(watchClock),
		bs.SyncAll(transfers...),
		bs.Modify(func(b Board) Board {
			b.Finished = true
			b.Status = statusComplete
			return b
		}),
		bs.AwaitGlobal(func(in Input, _ Board) (boardProc, bool) {
			return bs.Modify(quit), in.Kind == InputKey
		}),
	)
}

func watchKeys() boardProc {
	return bs.AwaitGlobal(func(in Input, b Board) (boardProc, bool) {
		if in.Kind != InputKey {
			return boardProc{}, false
		}
		switch {
		case keyMatches(in, keys.Quit):
			return bs.Modify(quit), true
		case keyMatches(in, keys.Pause):
			return bs.Batch(bs.When(!b.Finished, bs.Modify(setStatus(statusPaused))), watchKeys()), true
		case keyMatches(in, keys.Resume):
			return bs.Batch(bs.When(!b.Finished, bs.Modify(setStatus(statusRunning))), watchKeys()), true
		}
		return watchKeys(), true
	})
}

func watchResize() boardProc {
	return bs.AwaitGlobal(func(in Input, _ Board) (boardProc, bool) {
		if in.Kind != InputResize {
			return boardProc{}, false
		}
		width := in.Width
		return bs.Batch(
			bs.Modify(func(b Board) Board {
				b.Width = width
				return b
			}),
			watchResize(),
		), true
	})
}

func watchClock() boardProc {
	return bs.AwaitGlobal(func(in Input, b Board) (boardProc, bool) {
		if in.Kind != InputClock {
			return boardProc{}, false
		}
		if b.Finished {
			return bs.None(), true
		}
		return bs.Batch(
			bs.Modify(func(b Board) Board {
				b.Elapsed++
				return b
			}),
			watchClock(),
		), true
	})
}

func setStatus(s string) func(Board) Board {
	return func(b Board) Board {
		b.Status = s
		return b
	}
}

func quit(b Board) Board {
	b.Quitting = true
	return b
}

func classify(msg tea.Msg) (Input, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return Input{Kind: InputKey, Key: msg}, true
	case tea.WindowSizeMsg:
		return Input{Kind: InputResize, Width: msg.Width}, true
	}
	return Input{}, false
}

func clockSource(d time.Duration) teaprogram.Source[Input] {
	return teaprogram.Every("clock", d, func(time.Time) Input {
		return Input{Kind: InputClock}
	})
}
