package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/threadwork/internal/config"
	"github.com/kingrea/threadwork/procedure"
	"github.com/kingrea/threadwork/teaprogram"
)

type boardProgram = teaprogram.Program[Board, Input, BoardEvent]

func newTestBoard(t *testing.T, transfers ...config.TransferConfig) *boardProgram {
	t.Helper()
	return NewBoard(Options{
		Clock:     time.Millisecond,
		Transfers: transfers,
		Engine:    []procedure.Option{procedure.WithRunID("board-test")},
	})
}

// runCmd executes cmd synchronously, flattening batches.
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(t, c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// pump feeds messages back into the program until nothing is left.
func pump(t *testing.T, prog *boardProgram, queue []tea.Msg) []tea.Msg {
	t.Helper()
	var quit []tea.Msg
	for i := 0; len(queue) > 0; i++ {
		if i > 500 {
			t.Fatalf("program did not settle, %d messages still queued", len(queue))
		}
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			quit = append(quit, msg)
			continue
		}
		_, cmd := prog.Update(msg)
		queue = append(queue, runCmd(t, cmd)...)
	}
	return quit
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoardRunsTransfersToCompletion(t *testing.T) {
	prog := newTestBoard(t,
		config.TransferConfig{Name: "alpha", Step: 50},
		config.TransferConfig{Name: "beta", Step: 100},
	)
	if quit := pump(t, prog, runCmd(t, prog.Init())); len(quit) != 0 {
		t.Fatalf("board quit before any key was pressed")
	}
	b := prog.Memory()
	if !b.Finished || b.Status != statusComplete {
		t.Fatalf("expected finished board, got %+v", b)
	}
	for _, tr := range b.Transfers {
		if !tr.Done || tr.Progress != 100 {
			t.Fatalf("expected %s complete, got %+v", tr.Name, tr)
		}
	}
	if b.Elapsed != 1 {
		t.Fatalf("expected one clock tick while running, got %d", b.Elapsed)
	}

	_, cmd := prog.Update(keyPress("x"))
	if quit := pump(t, prog, runCmd(t, cmd)); len(quit) != 1 {
		t.Fatalf("expected any key to quit the finished board")
	}
	if !prog.Memory().Quitting {
		t.Fatalf("expected quitting flag")
	}
}

func TestBoardPauseHoldsProgress(t *testing.T) {
	prog := newTestBoard(t, config.TransferConfig{Name: "alpha", Step: 50})
	queue := runCmd(t, prog.Init())
	prog.Update(keyPress("p"))
	b := prog.Memory()
	if !b.Transfers[0].Paused || b.Status != statusPaused {
		t.Fatalf("expected paused transfer, got %+v", b)
	}

	var tick tea.Msg
	for i, msg := range queue {
		if _, ok := msg.(teaprogram.LocalMsg[BoardEvent]); ok {
			tick = msg
			queue = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}
	if tick == nil {
		t.Fatalf("expected a pending transfer tick in %v", queue)
	}
	_, cmd := prog.Update(tick)
	queue = append(queue, runCmd(t, cmd)...)
	if got := prog.Memory().Transfers[0].Progress; got != 0 {
		t.Fatalf("expected paused transfer to hold at 0, got %d", got)
	}

	prog.Update(keyPress("r"))
	if prog.Memory().Status != statusRunning {
		t.Fatalf("expected running status after resume")
	}
	pump(t, prog, queue)
	if tr := prog.Memory().Transfers[0]; !tr.Done || tr.Paused {
		t.Fatalf("expected transfer to finish after resume, got %+v", tr)
	}
}

func TestBoardQuitKeyEndsEarly(t *testing.T) {
	prog := newTestBoard(t, config.TransferConfig{Name: "alpha", Step: 1})
	runCmd(t, prog.Init())
	_, cmd := prog.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if quit := pump(t, prog, runCmd(t, cmd)); len(quit) != 1 {
		t.Fatalf("expected ctrl+c to quit")
	}
	if _, cmd := prog.Update(keyPress("p")); cmd != nil {
		t.Fatalf("expected updates after quit to be ignored")
	}
	if prog.Memory().Finished {
		t.Fatalf("transfers should not have finished")
	}
}

func TestBoardViewTracksResize(t *testing.T) {
	prog := newTestBoard(t, config.TransferConfig{Name: "alpha", Step: 10})
	runCmd(t, prog.Init())
	prog.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if got := prog.Memory().Width; got != 120 {
		t.Fatalf("expected width 120, got %d", got)
	}
	view := prog.View()
	for _, want := range []string{"THREADWORK", "alpha", "running", statusRunning} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestTransferLensCopiesOnSet(t *testing.T) {
	lens := transferLens(1)
	before := Board{Transfers: []Transfer{{Name: "a"}, {Name: "b"}}}
	after := lens.Set(Transfer{Name: "b", Progress: 40}, before)
	if before.Transfers[1].Progress != 0 {
		t.Fatalf("set mutated the original board")
	}
	if got := lens.Get(after); got.Progress != 40 || after.Transfers[0].Name != "a" {
		t.Fatalf("unexpected board after set %+v", after)
	}
}

func TestControlNarrowing(t *testing.T) {
	cases := []struct {
		in   Input
		want Control
		ok   bool
	}{
		{Input{Kind: InputKey, Key: keyPress("p")}, ControlPause, true},
		{Input{Kind: InputKey, Key: keyPress("r")}, ControlResume, true},
		{Input{Kind: InputKey, Key: keyPress("q")}, 0, false},
		{Input{Kind: InputResize, Width: 10}, 0, false},
		{Input{Kind: InputClock}, 0, false},
	}
	for _, tc := range cases {
		got, ok := controlOf(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("controlOf(%+v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	prism := transferPrism(2)
	if _, ok := prism.Unwrap(BoardEvent{Slot: 1}); ok {
		t.Fatalf("prism accepted another slot")
	}
}
