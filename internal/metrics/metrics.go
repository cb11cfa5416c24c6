// Package metrics exports engine scheduling activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kingrea/threadwork/procedure"
)

const namespace = "threadwork"

// Collector implements procedure.Observer.
type Collector struct {
	spawned    *prometheus.CounterVec
	terminated prometheus.Counter
	live       prometheus.Gauge
	dispatched *prometheus.CounterVec
	resumed    prometheus.Histogram
	commands   prometheus.Counter
}

// New registers the collector's metrics on reg. Registering twice on the same
// registry panics, as with any duplicate Prometheus registration.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		spawned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_spawned_total",
			Help:      "Threads created, by origin (root, fork, sync).",
		}, []string{"kind"}),
		terminated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_terminated_total",
			Help:      "Threads that ran off the end of their procedure or were quit.",
		}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threads_live",
			Help:      "Threads currently registered.",
		}),
		dispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Events dispatched, by scope and whether any thread resumed.",
		}, []string{"scope", "outcome"}),
		resumed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_resumed_threads",
			Help:      "Threads resumed by a single dispatched event.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		commands: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_emitted_total",
			Help:      "Commands handed to the host.",
		}),
	}
}

func (c *Collector) ThreadSpawned(origin procedure.Origin) {
	c.spawned.WithLabelValues(string(origin)).Inc()
	c.live.Inc()
}

func (c *Collector) ThreadTerminated() {
	c.terminated.Inc()
	c.live.Dec()
}

func (c *Collector) EventDispatched(scope procedure.Scope, resumed int) {
	outcome := "resumed"
	if resumed == 0 {
		outcome = "dropped"
	}
	c.dispatched.WithLabelValues(scope.String(), outcome).Inc()
	c.resumed.Observe(float64(resumed))
}

func (c *Collector) CommandsEmitted(n int) {
	if n > 0 {
		c.commands.Add(float64(n))
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
