package orchestrator

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShayCichocki/tandem/pkg/models"
)

const (
	metricsNamespace = "tandem"
	metricsSubsystem = "orchestrator"
)

// Metrics exposes Prometheus collectors for routing and workflow activity.
// A nil *Metrics is valid and records nothing. It also satisfies
// workflow.StepRecorder.
type Metrics struct {
	routes        *prometheus.CounterVec
	routeDuration *prometheus.HistogramVec
	subtasks      *prometheus.CounterVec
	steps         *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	workers       prometheus.Gauge
	active        prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns collectors registered with the global registry,
// creating them once.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics creates the collectors and registers them with reg.
// Collectors already registered under the same names are reused. Any other
// registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		routes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "routes_total",
			Help:      "Tasks routed, by approach and final status.",
		}, []string{"approach", "status"})),
		routeDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "route_duration_seconds",
			Help:      "Time from classification to the terminal notification.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"approach"})),
		subtasks: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "subtasks_total",
			Help:      "Worker invocations, by worker and result.",
		}, []string{"worker", "result"})),
		steps: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "workflow",
			Name:      "steps_total",
			Help:      "Workflow steps executed, by kind and result.",
		}, []string{"kind", "result"})),
		stepDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "workflow",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual workflow steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"})),
		workers: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "workers",
			Help:      "Workers currently in the pool, generalist included.",
		})),
		active: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "tasks_active",
			Help:      "Tasks currently being routed.",
		})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveRoute records a finished task.
func (m *Metrics) ObserveRoute(approach models.Approach, status models.TaskStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(string(approach), string(status)).Inc()
	m.routeDuration.WithLabelValues(string(approach)).Observe(d.Seconds())
}

// ObserveSubtask records one worker invocation.
func (m *Metrics) ObserveSubtask(worker string, success bool) {
	if m == nil {
		return
	}
	if worker == "" {
		worker = "none"
	}
	m.subtasks.WithLabelValues(worker, resultLabel(success)).Inc()
}

// ObserveStep implements workflow.StepRecorder.
func (m *Metrics) ObserveStep(kind models.StepKind, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(string(kind), resultLabel(success)).Inc()
	m.stepDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// SetWorkers sets the pool size gauge.
func (m *Metrics) SetWorkers(n int) {
	if m == nil {
		return
	}
	m.workers.Set(float64(n))
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.active.Inc()
}

func (m *Metrics) taskDone() {
	if m == nil {
		return
	}
	m.active.Dec()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
