// Package metrics exports engine activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxguide/internal/engine"
	"voxguide/internal/nlu"
)

// Observer is an engine.Observer that records phase changes and command
// outcomes.
type Observer struct {
	reg *prometheus.Registry

	transitions  *prometheus.CounterVec
	phase        prometheus.Gauge
	commands     *prometheus.CounterVec
	unrecognized prometheus.Counter
	processing   prometheus.Histogram

	mu      sync.Mutex
	started time.Time
	now     func() time.Time
}

func New() *Observer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Observer{
		reg: reg,
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxguide_phase_transitions_total",
				Help: "Engine phase transitions",
			},
			[]string{"from", "to"},
		),
		phase: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "voxguide_phase",
				Help: "Current engine phase (0 idle, 1 listening, 2 processing)",
			},
		),
		commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxguide_commands_total",
				Help: "Matched commands by category",
			},
			[]string{"category", "handled"},
		),
		unrecognized: f.NewCounter(
			prometheus.CounterOpts{
				Name: "voxguide_unrecognized_total",
				Help: "Utterances that matched no command",
			},
		),
		processing: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voxguide_processing_seconds",
				Help:    "Time spent processing one utterance",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		now: time.Now,
	}
}

func (o *Observer) PhaseChanged(from, to engine.Phase) {
	o.transitions.WithLabelValues(from.String(), to.String()).Inc()
	o.phase.Set(float64(to))

	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case to == engine.Processing:
		o.started = o.now()
	case from == engine.Processing && !o.started.IsZero():
		o.processing.Observe(o.now().Sub(o.started).Seconds())
		o.started = time.Time{}
	}
}

func (o *Observer) Processed(_ string, m nlu.Match, out nlu.Outcome) {
	if !m.Found() {
		o.unrecognized.Inc()
		return
	}
	o.commands.WithLabelValues(m.Command.Action.Category().String(), strconv.FormatBool(out.Handled)).Inc()
}

func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.reg, promhttp.HandlerOpts{Registry: o.reg})
}
