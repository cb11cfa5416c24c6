package teaprogram

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Source is an external event source. Next blocks until the next event is
// available; it is called again after every delivery while the source's Key
// is still listed by Config.Subscriptions.
type Source[G any] struct {
	Key  string
	Next func() G
}

// Every is a source that fires in sync with the system clock every d.
func Every[G any](key string, d time.Duration, fn func(time.Time) G) Source[G] {
	return Source[G]{Key: key, Next: func() G {
		var ev G
		tea.Every(d, func(t time.Time) tea.Msg {
			ev = fn(t)
			return nil
		})()
		return ev
	}}
}

type sourceMsg[G any] struct {
	key   string
	gen   uint64
	event G
}

type activeSource[G any] struct {
	gen  uint64
	next func() G
}

// subscriptions tracks which sources are listening. Every activation gets a
// fresh generation so results from a stopped (or restarted) source are
// discarded.
type subscriptions[G any] struct {
	active map[string]activeSource[G]
	gen    uint64
}

func (s *subscriptions[G]) accepts(msg sourceMsg[G]) bool {
	current, ok := s.active[msg.key]
	return ok && current.gen == msg.gen
}

// reconcile starts newly wanted sources, forgets unwanted ones and re-arms
// the source that just delivered when it is still wanted.
func (s *subscriptions[G]) reconcile(wanted []Source[G], delivered *sourceMsg[G]) []tea.Cmd {
	if s.active == nil {
		s.active = map[string]activeSource[G]{}
	}
	var cmds []tea.Cmd
	keep := make(map[string]struct{}, len(wanted))
	for _, src := range wanted {
		if src.Key == "" || src.Next == nil {
			continue
		}
		if _, dup := keep[src.Key]; dup {
			continue
		}
		keep[src.Key] = struct{}{}
		current, ok := s.active[src.Key]
		switch {
		case !ok:
			s.gen++
			s.active[src.Key] = activeSource[G]{gen: s.gen, next: src.Next}
			cmds = append(cmds, listen(src.Key, s.gen, src.Next))
		case delivered != nil && delivered.key == src.Key && delivered.gen == current.gen:
			current.next = src.Next
			s.active[src.Key] = current
			cmds = append(cmds, listen(src.Key, current.gen, src.Next))
		}
	}
	for key := range s.active {
		if _, ok := keep[key]; !ok {
			delete(s.active, key)
		}
	}
	return cmds
}

func (s *subscriptions[G]) stopAll() {
	s.active = nil
}

// keys lists the active source keys; used by tests.
func (s *subscriptions[G]) keys() []string {
	out := make([]string, 0, len(s.active))
	for key := range s.active {
		out = append(out, key)
	}
	return out
}

func listen[G any](key string, gen uint64, next func() G) tea.Cmd {
	return func() tea.Msg {
		return sourceMsg[G]{key: key, gen: gen, event: next()}
	}
}
