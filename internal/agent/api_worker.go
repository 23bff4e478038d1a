package agent

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/ShayCichocki/tandem/internal/api"
	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/toolregistry"
	"github.com/ShayCichocki/tandem/internal/workflow"
	"github.com/ShayCichocki/tandem/pkg/models"
)

// APIWorker runs each task through a Messages API tool loop restricted to
// the profile's tools.
type APIWorker struct {
	profile Profile
	client  *api.Client
	tools   workflow.ToolUser
	specs   []toolregistry.Spec
	logger  *slog.Logger
	closed  atomic.Bool
}

// NewAPIWorker creates a worker for profile. specs are the tools advertised
// to the model; tools executes them.
func NewAPIWorker(profile Profile, client *api.Client, tools workflow.ToolUser, specs []toolregistry.Spec, logger *slog.Logger) *APIWorker {
	return &APIWorker{
		profile: profile,
		client:  client,
		tools:   tools,
		specs:   specs,
		logger:  logging.OrNop(logger).With("worker", profile.Name),
	}
}

// Name implements Unit.
func (w *APIWorker) Name() string { return w.profile.Name }

// Run implements Unit.
func (w *APIWorker) Run(ctx context.Context, description string) (string, error) {
	if w.closed.Load() {
		return "", ErrClosed
	}

	model := w.profile.Model
	if model == "" {
		model = SelectModel(description, "")
	}

	loop := api.NewAgentLoop(api.AgentLoopConfig{
		Client: w.client,
		Tools:  w.tools,
		Specs:  w.specs,
		Model:  w.client.ResolveModel(model),
		Logger: w.logger,
	})
	result, err := loop.Run(ctx, w.profile.SystemPrompt, description)
	if err != nil {
		return "", err
	}
	w.logger.Debug("task finished",
		"iterations", result.Iterations,
		"tool_calls", result.ToolCalls,
		"tokens_in", result.TokensIn,
		"tokens_out", result.TokensOut,
	)
	return result.Output, nil
}

// Status implements Unit.
func (w *APIWorker) Status(context.Context) (models.WorkerStatus, error) {
	return models.WorkerStatus{
		Name:      w.profile.Name,
		Kind:      kindOf(w.profile),
		Alive:     !w.closed.Load(),
		ToolCount: len(w.specs),
		Domains:   append([]string(nil), w.profile.Domains...),
	}, nil
}

// Cleanup implements Unit.
func (w *APIWorker) Cleanup(context.Context) error {
	w.closed.Store(true)
	return nil
}

func kindOf(p Profile) string {
	if p.IsGeneralist() {
		return KindGeneralist
	}
	return KindSpecialist
}
