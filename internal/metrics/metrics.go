// Package metrics provides an optional Prometheus-backed Observer the
// runtime can report stage and sample telemetry to. It never opens a
// network listener itself (spec §6: "no CLI, no files, no environment
// variables" — the runtime is purely in-process); registering the
// collectors with an HTTP handler is the caller's concern. cmd/saxs-runner
// does not use this package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/saxsrs/batchsched/internal/status"
)

// Observer implements scheduler.Observer on top of a caller-owned
// prometheus.Registerer, modeled on the teacher's monitoring/collector
// sample-bucket design, adapted here to push straight into prometheus
// collectors instead of buffering samples in memory.
type Observer struct {
	stageLatency *prometheus.HistogramVec
	samplesTotal *prometheus.CounterVec
	pending      prometheus.Gauge
}

// New registers the scheduler's collectors against reg and returns an
// Observer ready to pass to scheduler.New / runtime.New.
func New(reg prometheus.Registerer) *Observer {
	o := &Observer{
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "saxs",
			Subsystem: "scheduler",
			Name:      "stage_duration_seconds",
			Help:      "Time spent executing a single stage invocation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		samplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saxs",
			Subsystem: "scheduler",
			Name:      "samples_terminal_total",
			Help:      "Samples that reached a terminal state, by status code.",
		}, []string{"code"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "saxs",
			Subsystem: "scheduler",
			Name:      "pending_items",
			Help:      "Queue length plus in-flight count.",
		}),
	}
	reg.MustRegister(o.stageLatency, o.samplesTotal, o.pending)
	return o
}

// ObserveStageComplete records one stage invocation's wall-clock duration.
func (o *Observer) ObserveStageComplete(id stage.ID, dur time.Duration) {
	o.stageLatency.WithLabelValues(id.String()).Observe(dur.Seconds())
}

// ObserveSampleTerminal records a sample reaching a terminal state.
func (o *Observer) ObserveSampleTerminal(code status.Code) {
	o.samplesTotal.WithLabelValues(string(code)).Inc()
}

// SetPending updates the pending-items gauge.
func (o *Observer) SetPending(n int) {
	o.pending.Set(float64(n))
}
