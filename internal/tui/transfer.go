package tui

import (
	"time"

	"github.com/kingrea/threadwork/procedure"
	"github.com/kingrea/threadwork/teaprogram"
)

// Transfer is the memory a single transfer thread sees.
type Transfer struct {
	Name     string
	Step     int
	Progress int
	Paused   bool
	Done     bool
}

// TransferEvent is delivered to a transfer thread when its tick elapses.
type TransferEvent struct {
	At time.Time
}

// Control is the only global event a transfer thread understands.
type Control int

const (
	ControlPause Control = iota + 1
	ControlResume
)

type transferProc = procedure.Procedure[Transfer, teaprogram.Cmd[TransferEvent], Control, TransferEvent]

var ts procedure.Steps[Transfer, teaprogram.Cmd[TransferEvent], Control, TransferEvent]

// runTransfer advances the transfer once per tick until it reaches 100%.
// A forked watcher flips the paused flag; ticks that arrive while paused are
// ignored.
func runTransfer(tick time.Duration) transferProc {
	return ts.Batch(
		ts.Fork(watchControls),
		transferLoop(tick),
	)
}

func transferLoop(tick time.Duration) transferProc {
	return ts.Batch(
		ts.Push(func(Transfer) teaprogram.Cmd[TransferEvent] {
			return waitTick(tick)
		}),
		ts.Await(func(_ TransferEvent, t Transfer) (transferProc, bool) {
			if t.Paused {
				return transferLoop(tick), true
			}
			next := advance(t)
			return ts.Batch(
				ts.Modify(advance),
				ts.When(!next.Done, transferLoop(tick)),
			), true
		}),
	)
}

func watchControls() transferProc {
	return ts.AwaitGlobal(func(c Control, t Transfer) (transferProc, bool) {
		if t.Done {
			return ts.None(), true
		}
		paused := c == ControlPause
		return ts.Batch(
			ts.Modify(func(t Transfer) Transfer {
				t.Paused = paused
				return t
			}),
			watchControls(),
		), true
	})
}

func advance(t Transfer) Transfer {
	t.Progress += t.Step
	if t.Progress >= 100 {
		t.Progress = 100
		t.Done = true
	}
	return t
}

func waitTick(d time.Duration) teaprogram.Cmd[TransferEvent] {
	return teaprogram.Tick(d, func(at time.Time) TransferEvent {
		return TransferEvent{At: at}
	})
}

// transferLens focuses Board.Transfers[i]. Set copies the slice so earlier
// Board values are never mutated.
func transferLens(i int) procedure.Lens[Board, Transfer] {
	return procedure.Lens[Board, Transfer]{
		Get: func(b Board) Transfer { return b.Transfers[i] },
		Set: func(t Transfer, b Board) Board {
			transfers := make([]Transfer, len(b.Transfers))
			copy(transfers, b.Transfers)
			transfers[i] = t
			b.Transfers = transfers
			return b
		},
	}
}

// transferPrism addresses slot i of the board's local event space.
func transferPrism(i int) procedure.Prism[BoardEvent, TransferEvent] {
	return procedure.Prism[BoardEvent, TransferEvent]{
		Wrap: func(ev TransferEvent) BoardEvent { return BoardEvent{Slot: i, Transfer: ev} },
		Unwrap: func(ev BoardEvent) (TransferEvent, bool) {
			return ev.Transfer, ev.Slot == i
		},
	}
}

// controlOf narrows board input to pause/resume.
func controlOf(in Input) (Control, bool) {
	if in.Kind != InputKey {
		return 0, false
	}
	switch {
	case keyMatches(in, keys.Pause):
		return ControlPause, true
	case keyMatches(in, keys.Resume):
		return ControlResume, true
	}
	return 0, false
}

// embedTransfer lifts a transfer thread into the board.
func embedTransfer(i int, tick time.Duration) boardProc {
	prism := transferPrism(i)
	return procedure.Embed(procedure.Layer[Board, Transfer, teaprogram.Cmd[BoardEvent], teaprogram.Cmd[TransferEvent], Input, Control, BoardEvent, TransferEvent]{
		Memory: transferLens(i),
		Command: func(c teaprogram.Cmd[TransferEvent]) teaprogram.Cmd[BoardEvent] {
			return teaprogram.MapCmd(c, prism.Wrap)
		},
		Global: controlOf,
		Local:  prism.Unwrap,
	}, runTransfer(tick))
}
