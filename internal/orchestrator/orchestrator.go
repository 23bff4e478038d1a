package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ShayCichocki/tandem/internal/agent"
	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/internal/state"
	"github.com/ShayCichocki/tandem/pkg/models"
)

// slot is one named position in the worker pool.
type slot struct {
	profile agent.Profile
	unit    agent.Unit
}

// InitReport describes what Initialize built.
type InitReport struct {
	// Built lists slots whose own profile built successfully, in order.
	Built []string `json:"built"`
	// Replaced maps slots that fell back to a generalist to the build error.
	Replaced map[string]string `json:"replaced,omitempty"`
	// Failed maps slots left empty because even the fallback failed.
	Failed map[string]string `json:"failed,omitempty"`
}

// Orchestrator owns the worker pool and routes tasks across it. It is safe
// for concurrent use.
type Orchestrator struct {
	factory           agent.Factory
	profiles          []agent.Profile
	generalistProfile agent.Profile
	classifier        *classifier.Classifier
	progress          *progress.Broadcaster
	archive           state.Archive
	metrics           *Metrics
	tracer            trace.Tracer
	logger            *slog.Logger
	parallelLimit     int
	maxDuration       time.Duration

	mu         sync.RWMutex
	pool       []slot
	generalist *slot

	history *ring
}

// New creates an orchestrator that builds its workers with factory.
// Call Initialize before routing.
func New(factory agent.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		factory:           factory,
		profiles:          agent.DefaultProfiles(),
		generalistProfile: agent.DefaultGeneralist(),
		classifier:        classifier.New(),
		progress:          progress.NewBroadcaster(),
		tracer:            otel.Tracer(traceScope),
		logger:            logging.Nop(),
		history:           newRing(defaultHistorySize),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initialize builds every configured worker. A specialist that fails to
// build is replaced by a generalist occupying the same slot; one failure
// never stops the others. An existing pool is cleaned up first.
func (o *Orchestrator) Initialize(ctx context.Context) InitReport {
	o.Cleanup(ctx)

	report := InitReport{Replaced: map[string]string{}, Failed: map[string]string{}}
	pool := make([]slot, 0, len(o.profiles))

	for _, p := range o.profiles {
		unit, err := o.build(ctx, p)
		if err == nil {
			pool = append(pool, slot{profile: p, unit: unit})
			report.Built = append(report.Built, p.Name)
			continue
		}

		o.logger.Warn("worker build failed, using generalist", "worker", p.Name, "error", err)
		fallback := o.generalistProfile
		fallback.Name = p.Name
		fallback.Domains = append([]string(nil), p.Domains...)
		unit, ferr := o.build(ctx, fallback)
		if ferr != nil {
			o.logger.Error("generalist fallback failed", "worker", p.Name, "error", ferr)
			report.Failed[p.Name] = ferr.Error()
			continue
		}
		pool = append(pool, slot{profile: fallback, unit: unit})
		report.Replaced[p.Name] = err.Error()
	}

	var generalist *slot
	if unit, err := o.build(ctx, o.generalistProfile); err != nil {
		o.logger.Error("generalist build failed", "error", err)
		report.Failed[o.generalistProfile.Name] = err.Error()
	} else {
		generalist = &slot{profile: o.generalistProfile, unit: unit}
		report.Built = append(report.Built, o.generalistProfile.Name)
	}

	o.mu.Lock()
	o.pool = pool
	o.generalist = generalist
	o.mu.Unlock()

	o.metrics.SetWorkers(o.workerCount())
	o.logger.Info("workers initialized",
		"built", len(report.Built), "replaced", len(report.Replaced), "failed", len(report.Failed))
	return report
}

// build calls the factory, converting a panic into an error.
func (o *Orchestrator) build(ctx context.Context, p agent.Profile) (agent.Unit, error) {
	if o.factory == nil {
		return nil, fmt.Errorf("no worker factory configured")
	}
	var (
		unit agent.Unit
		err  error
		pc   panics.Catcher
	)
	pc.Try(func() { unit, err = o.factory.Build(ctx, p) })
	if r := pc.Recovered(); r != nil {
		return nil, fmt.Errorf("building %s panicked: %v", p.Name, r.Value)
	}
	if err == nil && unit == nil {
		err = fmt.Errorf("factory returned no worker for %s", p.Name)
	}
	return unit, err
}

// Workers returns the slot names in registration order, generalist last.
func (o *Orchestrator) Workers() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.pool)+1)
	for _, s := range o.pool {
		names = append(names, s.profile.Name)
	}
	if o.generalist != nil {
		names = append(names, o.generalist.profile.Name)
	}
	return names
}

func (o *Orchestrator) workerCount() int {
	return len(o.Workers())
}

// Status snapshots every worker. A worker that cannot report yields an
// entry with Error set instead of failing the whole call.
func (o *Orchestrator) Status(ctx context.Context) map[string]models.WorkerStatus {
	o.mu.RLock()
	slots := append([]slot(nil), o.pool...)
	if o.generalist != nil {
		slots = append(slots, *o.generalist)
	}
	o.mu.RUnlock()

	out := make(map[string]models.WorkerStatus, len(slots))
	for _, s := range slots {
		out[s.profile.Name] = o.statusOf(ctx, s)
	}
	return out
}

func (o *Orchestrator) statusOf(ctx context.Context, s slot) models.WorkerStatus {
	var (
		st  models.WorkerStatus
		err error
		pc  panics.Catcher
	)
	pc.Try(func() { st, err = s.unit.Status(ctx) })
	if r := pc.Recovered(); r != nil {
		err = fmt.Errorf("status panicked: %v", r.Value)
	}
	if err != nil {
		return models.WorkerStatus{Name: s.profile.Name, Error: err.Error()}
	}
	st.Name = s.profile.Name
	return st
}

// Cleanup tears down every worker. Errors are logged, and the pool is
// always cleared.
func (o *Orchestrator) Cleanup(ctx context.Context) {
	o.mu.Lock()
	slots := o.pool
	if o.generalist != nil {
		slots = append(slots, *o.generalist)
	}
	o.pool = nil
	o.generalist = nil
	o.mu.Unlock()

	for _, s := range slots {
		var err error
		var pc panics.Catcher
		pc.Try(func() { err = s.unit.Cleanup(ctx) })
		if r := pc.Recovered(); r != nil {
			err = fmt.Errorf("cleanup panicked: %v", r.Value)
		}
		if err != nil {
			o.logger.Warn("worker cleanup failed", "worker", s.profile.Name, "error", err)
		}
	}
	if len(slots) > 0 {
		o.metrics.SetWorkers(0)
	}
}

// History returns up to the configured number of finished tasks, oldest
// first.
func (o *Orchestrator) History() []models.Task {
	return o.history.list()
}

// Progress returns the broadcaster route notifications go through.
func (o *Orchestrator) Progress() *progress.Broadcaster {
	return o.progress
}
