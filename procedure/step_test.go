package procedure

import "testing"

func TestAwaitForResumesAndRunsBufferedSteps(t *testing.T) {
	cases := []struct {
		name     string
		root     proc
		event    func(root ThreadID, ev string) Event[string, string]
		awaiting Status
	}{
		{
			name:     "local",
			root:     st.Batch(st.AwaitFor(func(ev string, _ int) bool { return ev == "go" }), add(1), emit("after")),
			event:    func(root ThreadID, ev string) Event[string, string] { return Local[string](root, ev) },
			awaiting: StatusAwaitingLocal,
		},
		{
			name:     "global",
			root:     st.Batch(st.AwaitGlobalFor(func(ev string, _ int) bool { return ev == "go" }), add(1), emit("after")),
			event:    func(_ ThreadID, ev string) Event[string, string] { return Global[string, string](ev) },
			awaiting: StatusAwaitingGlobal,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := cue(t, 0, tc.root)
			root := e.Root()
			e.Dispatch(tc.event(root, "wait"))
			if status, ok := e.Status(root); !ok || status != tc.awaiting {
				t.Fatalf("expected %q after a non-matching event, got %q (live=%v)", tc.awaiting, status, ok)
			}
			cmds := e.Dispatch(tc.event(root, "go"))
			if e.Memory() != 1 || !e.Done() {
				t.Fatalf("expected buffered steps to run, memory %d done %v", e.Memory(), e.Done())
			}
			if len(cmds) != 1 || cmds[0].Value != "after" {
				t.Fatalf("expected command after resumption, got %+v", cmds)
			}
		})
	}
}

func TestNilArgumentsActAsNone(t *testing.T) {
	cases := map[string]proc{
		"modify": st.Modify(nil),
		"push":   st.Push(nil),
		"fork":   st.Fork(nil),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if p.Kind() != KindNone {
				t.Fatalf("expected %s, got %s", KindNone, p.Kind())
			}
			e, cmds := cue(t, 5, st.Batch(p, add(1)))
			if e.Memory() != 6 || len(cmds) != 0 || !e.Done() {
				t.Fatalf("expected nil step to change nothing, memory %d cmds %+v", e.Memory(), cmds)
			}
			if n := len(threadsWithOrigin(e, OriginFork)); n != 0 {
				t.Fatalf("expected no forks, got %d", n)
			}
		})
	}
}

func TestNilAwaitPredicatesNeverMatch(t *testing.T) {
	e, _ := cue(t, 0, st.Batch(st.AwaitGlobal(nil), add(1)))
	root := e.Root()
	for _, ev := range []string{"a", "b", ""} {
		e.Dispatch(Global[string, string](ev))
	}
	if status, ok := e.Status(root); !ok || status != StatusAwaitingGlobal {
		t.Fatalf("expected nil global predicate to stay armed, got %q (live=%v)", status, ok)
	}

	e, _ = cue(t, 0, st.Batch(st.AwaitGlobalFor(nil), add(1)))
	e.Dispatch(Global[string, string]("a"))
	if e.Memory() != 0 || e.Done() {
		t.Fatalf("expected AwaitGlobalFor(nil) to stay suspended")
	}

	e, _ = cue(t, 0, st.Batch(st.AwaitFor(nil), add(1)))
	e.Dispatch(Local[string](e.Root(), "a"))
	if status, ok := e.Status(e.Root()); !ok || status != StatusAwaitingLocal {
		t.Fatalf("expected AwaitFor(nil) to stay suspended, got %q (live=%v)", status, ok)
	}
}

func TestSequenceMatchesBatch(t *testing.T) {
	double := st.Modify(func(m int) int { return m * 2 })
	seq, seqCmds := cue(t, 3, st.Sequence(add(1), double, emit("x")))
	batch, batchCmds := cue(t, 3, st.Batch(add(1), double, emit("x")))
	if seq.Memory() != 8 || batch.Memory() != 8 {
		t.Fatalf("expected 8 for both, got %d and %d", seq.Memory(), batch.Memory())
	}
	if len(seqCmds) != 1 || len(batchCmds) != 1 || seqCmds[0].Value != batchCmds[0].Value {
		t.Fatalf("expected identical commands, got %+v and %+v", seqCmds, batchCmds)
	}
	if got := st.Sequence().Kind(); got != KindNone {
		t.Fatalf("expected empty sequence to be none, got %s", got)
	}
}

func TestKindReportsEveryVariant(t *testing.T) {
	cases := []struct {
		p    proc
		want Kind
		name string
	}{
		{st.None(), KindNone, "none"},
		{st.Batch(add(1), add(2)), KindBatch, "batch"},
		{add(1), KindModify, "modify"},
		{emit("x"), KindPush, "push"},
		{st.AwaitFor(nil), KindAwait, "await"},
		{st.AwaitGlobal(nil), KindAwaitGlobal, "await-global"},
		{st.Fork(func() proc { return st.None() }), KindFork, "fork"},
		{st.SyncAll(st.None()), KindSyncAll, "sync-all"},
		{st.Quit(), KindQuit, "quit"},
	}
	for _, tc := range cases {
		if got := tc.p.Kind(); got != tc.want {
			t.Fatalf("expected kind %s, got %s", tc.want, got)
		}
		if got := tc.want.String(); got != tc.name {
			t.Fatalf("expected %q, got %q", tc.name, got)
		}
	}
	if got := Kind(200).String(); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
