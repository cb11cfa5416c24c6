package procedure

// threadState is where a thread's continuation currently stands.
type threadState uint8

const (
	stateReady threadState = iota
	stateAwaitLocal
	stateAwaitGlobal
	stateJoining
	stateDone
)

// stepResult is what one interpreter pass hands back to the engine.
type stepResult[M, C, G, L any] struct {
	// cont is the remaining description. When suspended at an await, cont[0]
	// is the await node; when joining, cont is what follows the SyncAll.
	cont  []Procedure[M, C, G, L]
	state threadState
	mem   M
	cmds  []C
	forks []Procedure[M, C, G, L]
	group []Procedure[M, C, G, L]
}

// interpret walks cont depth-first until the thread suspends or terminates.
// Fork and SyncAll bodies are returned to the caller rather than run inline.
func interpret[M, C, G, L any](cont []Procedure[M, C, G, L], mem M) stepResult[M, C, G, L] {
	res := stepResult[M, C, G, L]{mem: mem}
	for len(cont) > 0 {
		head, rest := cont[0], cont[1:]
		switch head.kind {
		case KindBatch:
			cont = splice(head.steps, rest)
		case KindModify:
			res.mem = head.modify(res.mem)
			cont = rest
		case KindPush:
			res.cmds = append(res.cmds, head.push(res.mem))
			cont = rest
		case KindFork:
			res.forks = append(res.forks, head.fork())
			cont = rest
		case KindSyncAll:
			if len(head.steps) == 0 {
				cont = rest
				continue
			}
			res.group = head.steps
			res.cont = rest
			res.state = stateJoining
			return res
		case KindAwait:
			res.cont = cont
			res.state = stateAwaitLocal
			return res
		case KindAwaitGlobal:
			res.cont = cont
			res.state = stateAwaitGlobal
			return res
		case KindQuit:
			res.state = stateDone
			return res
		default:
			cont = rest
		}
	}
	res.state = stateDone
	return res
}

// resumeLocal offers ev to the Await node at the head of cont. It reports
// false when the predicate declines, leaving the continuation untouched.
func resumeLocal[M, C, G, L any](cont []Procedure[M, C, G, L], ev L, mem M) ([]Procedure[M, C, G, L], bool) {
	if len(cont) == 0 || cont[0].kind != KindAwait {
		return cont, false
	}
	next, ok := cont[0].local(ev, mem)
	if !ok {
		return cont, false
	}
	return splice([]Procedure[M, C, G, L]{next}, cont[1:]), true
}

func resumeGlobal[M, C, G, L any](cont []Procedure[M, C, G, L], ev G, mem M) ([]Procedure[M, C, G, L], bool) {
	if len(cont) == 0 || cont[0].kind != KindAwaitGlobal {
		return cont, false
	}
	next, ok := cont[0].global(ev, mem)
	if !ok {
		return cont, false
	}
	return splice([]Procedure[M, C, G, L]{next}, cont[1:]), true
}

// splice returns head followed by rest in a fresh slice.
func splice[M, C, G, L any](head, rest []Procedure[M, C, G, L]) []Procedure[M, C, G, L] {
	out := make([]Procedure[M, C, G, L], 0, len(head)+len(rest))
	out = append(out, head...)
	return append(out, rest...)
}
