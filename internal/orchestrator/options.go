package orchestrator

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ShayCichocki/tandem/internal/agent"
	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/internal/state"
)

const defaultHistorySize = 10

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*Orchestrator)

// WithProfiles sets the specialist profiles, in registration order, and the
// generalist profile. Defaults to agent.DefaultProfiles and
// agent.DefaultGeneralist.
func WithProfiles(specialists []agent.Profile, generalist agent.Profile) Option {
	return func(o *Orchestrator) {
		o.profiles = append([]agent.Profile(nil), specialists...)
		o.generalistProfile = generalist
	}
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *classifier.Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithBroadcaster sets the progress broadcaster.
func WithBroadcaster(b *progress.Broadcaster) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.progress = b
		}
	}
}

// WithArchive records every finished task.
func WithArchive(a state.Archive) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		if tp != nil {
			o.tracer = tp.Tracer(traceScope)
		}
	}
}

// WithHistorySize sets how many finished tasks History keeps. Sizes above
// defaultHistorySize are capped.
func WithHistorySize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.history = newRing(min(n, defaultHistorySize))
		}
	}
}

// WithParallelLimit caps concurrently running parallel subtasks.
// Zero or less means unlimited.
func WithParallelLimit(n int) Option {
	return func(o *Orchestrator) { o.parallelLimit = n }
}

// WithMaxDuration records an advisory time budget on progress
// notifications. It is never enforced.
func WithMaxDuration(d time.Duration) Option {
	return func(o *Orchestrator) { o.maxDuration = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}
