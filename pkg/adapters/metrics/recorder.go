package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/core"
)

// Reconcile results.
const (
	ResultSuccess  = "success"
	ResultDegraded = "degraded"
	ResultError    = "error"
)

var phases = []core.Phase{core.PhasePending, core.PhaseProgressing, core.PhaseReady, core.PhaseDegraded, core.PhaseTerminating}

// Recorder exposes helpers for recording Prometheus metrics about reconciliations.
type Recorder struct {
	reconciles *prometheus.CounterVec
	duration   prometheus.Histogram
	childOps   *prometheus.CounterVec
	errors     *prometheus.CounterVec
	bots       *prometheus.GaugeVec

	mu     sync.Mutex
	phases map[string]core.Phase
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Default returns the shared recorder registered with the controller-runtime registry,
// which the manager serves on its metrics endpoint.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewRecorder(ctrlmetrics.Registry)
	})
	return defaultRecorder
}

// NewRecorder constructs a Recorder and registers the metrics with the provided registerer.
// If reg is nil the default Prometheus registerer is used.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freqtrade_operator_reconcile_total",
			Help: "Total number of Bot reconciliations partitioned by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "freqtrade_operator_reconcile_duration_seconds",
			Help:    "Histogram of Bot reconciliation durations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		childOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freqtrade_operator_child_operations_total",
			Help: "Writes to Bot children partitioned by kind and action.",
		}, []string{"kind", "action"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freqtrade_operator_errors_total",
			Help: "Total number of reconciliation errors partitioned by category.",
		}, []string{"category"}),
		bots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "freqtrade_operator_bots",
			Help: "Number of Bots currently in each phase.",
		}, []string{"phase"}),
		phases: map[string]core.Phase{},
	}
	r.reconciles = register(reg, r.reconciles)
	r.duration = register(reg, r.duration)
	r.childOps = register(reg, r.childOps)
	r.errors = register(reg, r.errors)
	r.bots = register(reg, r.bots)
	return r
}

// ObserveReconcile records one pass: its result, duration, and child writes.
func (r *Recorder) ObserveReconcile(phase core.Phase, sum *summary.Summary, reconcileErr error, duration time.Duration) {
	if r == nil {
		return
	}
	result := ResultSuccess
	switch {
	case reconcileErr != nil:
		result = ResultError
		r.errors.WithLabelValues(string(core.ClassifyError(reconcileErr))).Inc()
	case phase == core.PhaseDegraded:
		result = ResultDegraded
	}
	r.reconciles.WithLabelValues(result).Inc()
	r.duration.Observe(duration.Seconds())
	if sum == nil {
		return
	}
	for _, action := range sum.Actions {
		if action.Action == summary.ActionUnchanged {
			continue
		}
		r.childOps.WithLabelValues(action.Kind, string(action.Action)).Inc()
	}
}

// ObservePhase remembers the phase of the Bot identified by key.
func (r *Recorder) ObservePhase(key string, phase core.Phase) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if phase == "" {
		delete(r.phases, key)
	} else {
		r.phases[key] = phase
	}
	r.refreshLocked()
}

// ForgetBot drops a deleted Bot from the phase gauge.
func (r *Recorder) ForgetBot(key string) {
	r.ObservePhase(key, "")
}

func (r *Recorder) refreshLocked() {
	counts := map[core.Phase]int{}
	for _, phase := range r.phases {
		counts[phase]++
	}
	for _, phase := range phases {
		r.bots.WithLabelValues(string(phase)).Set(float64(counts[phase]))
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
