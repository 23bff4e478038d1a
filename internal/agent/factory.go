package agent

import (
	"context"
	"log/slog"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/ShayCichocki/tandem/internal/api"
	"github.com/ShayCichocki/tandem/internal/events"
	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/toolregistry"
	"github.com/ShayCichocki/tandem/internal/workflow"
)

// Factory builds a worker from a profile.
type Factory interface {
	Build(ctx context.Context, profile Profile) (Unit, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, profile Profile) (Unit, error)

// Build calls f.
func (f FactoryFunc) Build(ctx context.Context, profile Profile) (Unit, error) {
	return f(ctx, profile)
}

// FactoryConfig wires the shared dependencies every worker draws on.
type FactoryConfig struct {
	// Client enables API-backed specialists and the LLM planner. Nil builds
	// workflow workers only.
	Client   *api.Client
	Registry *toolregistry.Registry
	ToolUser workflow.ToolUser
	// Planner overrides the planner used by workflow workers.
	Planner        workflow.Planner
	Bus            *events.Bus
	StepRecorder   workflow.StepRecorder
	TracerProvider trace.TracerProvider
	Logger         *slog.Logger
}

// DefaultFactory builds API workers for specialists when a client is
// configured, and workflow workers otherwise. The generalist is always a
// workflow worker with every registered tool.
type DefaultFactory struct {
	cfg    FactoryConfig
	logger *slog.Logger
}

// NewFactory creates a DefaultFactory.
func NewFactory(cfg FactoryConfig) *DefaultFactory {
	if cfg.Registry == nil {
		cfg.Registry = toolregistry.New()
	}
	if cfg.ToolUser == nil {
		cfg.ToolUser = workflow.NewRegistryToolUser(cfg.Registry, workflow.ToolUserConfig{}, cfg.Logger)
	}
	if cfg.Planner == nil {
		if cfg.Client != nil {
			cfg.Planner = api.NewPlanner(api.NewRunner(cfg.Client), 0)
		} else {
			cfg.Planner = workflow.StaticPlanner{}
		}
	}
	return &DefaultFactory{cfg: cfg, logger: logging.OrNop(cfg.Logger)}
}

// Build implements Factory.
func (f *DefaultFactory) Build(_ context.Context, profile Profile) (Unit, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if profile.IsGeneralist() {
		return NewWorkflowWorker(profile, f.engine(f.cfg.ToolUser), f.cfg.Registry.Count()), nil
	}

	specs, err := f.resolveTools(profile)
	if err != nil {
		return nil, err
	}
	tools := restrictTools(f.cfg.ToolUser, profile.Tools)

	if f.cfg.Client != nil {
		return NewAPIWorker(profile, f.cfg.Client, tools, specs, f.logger), nil
	}
	return NewWorkflowWorker(profile, f.engine(tools), len(specs)), nil
}

func (f *DefaultFactory) engine(tools workflow.ToolUser) *workflow.Engine {
	opts := []workflow.Option{
		workflow.WithToolUser(tools),
		workflow.WithLogger(f.logger),
	}
	if f.cfg.Bus != nil {
		opts = append(opts, workflow.WithBus(f.cfg.Bus))
	}
	if f.cfg.StepRecorder != nil {
		opts = append(opts, workflow.WithStepRecorder(f.cfg.StepRecorder))
	}
	if f.cfg.TracerProvider != nil {
		opts = append(opts, workflow.WithTracerProvider(f.cfg.TracerProvider))
	}
	return workflow.NewEngine(f.cfg.Planner, opts...)
}

// resolveTools returns the specs of the profile's tools, advertised under
// their registry names.
func (f *DefaultFactory) resolveTools(profile Profile) ([]toolregistry.Spec, error) {
	specs := make([]toolregistry.Spec, 0, len(profile.Tools))
	for _, name := range profile.Tools {
		tool, err := f.cfg.Registry.Lookup(name)
		if err != nil {
			return nil, goerr.Wrap(err, "worker tool unavailable", goerr.V("worker", profile.Name))
		}
		spec := tool.Spec()
		spec.Name = name
		specs = append(specs, spec)
	}
	return specs, nil
}

// restrictTools wraps u so only the named tools can be called.
func restrictTools(u workflow.ToolUser, allowed []string) workflow.ToolUser {
	return workflow.ToolUserFunc(func(ctx context.Context, call workflow.ToolCall) workflow.ToolOutcome {
		if !slices.Contains(allowed, call.ToolName) {
			return workflow.ToolOutcome{Message: "tool " + call.ToolName + " is not available to this worker"}
		}
		return u.Use(ctx, call)
	})
}
