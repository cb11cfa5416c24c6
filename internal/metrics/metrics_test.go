package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/threadwork/procedure"
)

type proc = procedure.Procedure[int, string, string, string]

var st procedure.Steps[int, string, string, string]

func TestCollectorTracksEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	waitGo := func() proc {
		return st.AwaitGlobal(func(ev string, _ int) (proc, bool) {
			return st.None(), ev == "go"
		})
	}
	root := st.Batch(
		st.Fork(func() proc { return st.Push(func(int) string { return "forked" }) }),
		st.SyncAll(waitGo(), waitGo()),
		st.Push(func(int) string { return "joined" }),
	)
	e, cmds := procedure.Cue(0, root, procedure.WithObserver(c))
	require.Len(t, cmds, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.spawned.WithLabelValues("root")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.spawned.WithLabelValues("fork")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.spawned.WithLabelValues("sync")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.live))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands))

	e.Dispatch(procedure.Global[string, string]("go"))
	assert.True(t, e.Done())
	assert.Equal(t, 0.0, testutil.ToFloat64(c.live))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.terminated))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.commands))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatched.WithLabelValues("global", "resumed")))

	e.Dispatch(procedure.Local[string](e.Root(), "late"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatched.WithLabelValues("local", "dropped")))

	count, err := testutil.GatherAndCount(reg, "threadwork_event_resumed_threads")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.ThreadSpawned(procedure.OriginRoot)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `threadwork_threads_spawned_total{kind="root"} 1`), "unexpected body:\n%s", body)
	assert.True(t, strings.Contains(string(body), "threadwork_threads_live 1"))
}
