package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/internal/workflow"
	"github.com/ShayCichocki/tandem/pkg/models"
)

// WorkflowWorker runs each task through the workflow engine: plan, execute
// steps, aggregate.
type WorkflowWorker struct {
	profile   Profile
	engine    *workflow.Engine
	toolCount int
	closed    atomic.Bool
}

// NewWorkflowWorker creates a worker that delegates to engine.
func NewWorkflowWorker(profile Profile, engine *workflow.Engine, toolCount int) *WorkflowWorker {
	return &WorkflowWorker{profile: profile, engine: engine, toolCount: toolCount}
}

// Name implements Unit.
func (w *WorkflowWorker) Name() string { return w.profile.Name }

// Run implements Unit. A run whose decomposition failed is an error; step
// failures are reported inside the text.
func (w *WorkflowWorker) Run(ctx context.Context, description string) (string, error) {
	if w.closed.Load() {
		return "", ErrClosed
	}

	result := w.engine.Run(ctx, workflow.Request{
		Input:      description,
		Complexity: classifier.Classify(description).Complexity,
	})
	if result.Status == models.WorkflowStatusError {
		return "", errors.New(result.Error)
	}
	return FormatWorkflow(result), nil
}

// Status implements Unit.
func (w *WorkflowWorker) Status(context.Context) (models.WorkerStatus, error) {
	return models.WorkerStatus{
		Name:      w.profile.Name,
		Kind:      kindOf(w.profile),
		Alive:     !w.closed.Load(),
		ToolCount: w.toolCount,
		Domains:   append([]string(nil), w.profile.Domains...),
	}, nil
}

// Cleanup implements Unit.
func (w *WorkflowWorker) Cleanup(context.Context) error {
	w.closed.Store(true)
	return nil
}

// FormatWorkflow renders a workflow result as one line per step followed by
// a summary line.
func FormatWorkflow(r *models.WorkflowResult) string {
	var sb strings.Builder
	for _, s := range r.Steps {
		if s.Success {
			fmt.Fprintf(&sb, "step %d ok: %s\n", s.StepNumber, s.Result)
		} else {
			fmt.Fprintf(&sb, "step %d failed: %s\n", s.StepNumber, s.Error)
		}
	}
	fmt.Fprintf(&sb, "%s: %d/%d steps succeeded", r.Status, r.SuccessfulSteps, r.TotalSteps)
	return sb.String()
}
