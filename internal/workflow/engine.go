// Package workflow decomposes a task into ordered steps through a Planner,
// runs each step as a tool call or a generic unit of work, and aggregates
// the outcome while publishing lifecycle events.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ShayCichocki/tandem/internal/events"
	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/pkg/models"
)

const (
	traceScope    = "tandem.workflow"
	spanRun       = "tandem.workflow.run"
	spanPlan      = "tandem.workflow.plan"
	spanStep      = "tandem.workflow.step"
	attrWorkflow  = "tandem.workflow_id"
	attrStep      = "tandem.step_number"
	attrStepKind  = "tandem.step_kind"
	attrToolName  = "tandem.tool_name"
	attrStatus    = "tandem.status"
	attrStepCount = "tandem.total_steps"
)

// Request is the input to Engine.Run.
type Request struct {
	Input      string
	Context    string
	Complexity models.Complexity
}

// GenericExecutor performs a step that needs no tool.
type GenericExecutor interface {
	Execute(ctx context.Context, step string, req Request) (string, error)
}

// GenericExecutorFunc adapts a function to GenericExecutor.
type GenericExecutorFunc func(ctx context.Context, step string, req Request) (string, error)

// Execute calls f.
func (f GenericExecutorFunc) Execute(ctx context.Context, step string, req Request) (string, error) {
	return f(ctx, step, req)
}

// StepRecorder observes finished steps, typically for metrics.
type StepRecorder interface {
	ObserveStep(kind models.StepKind, success bool, d time.Duration)
}

// Engine runs planner-driven workflows. An Engine is safe for concurrent use.
type Engine struct {
	planner  Planner
	tools    ToolUser
	generic  GenericExecutor
	bus      *events.Bus
	recorder StepRecorder
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithToolUser sets the tool invoker for tool steps.
func WithToolUser(u ToolUser) Option {
	return func(e *Engine) { e.tools = u }
}

// WithGenericExecutor replaces the built-in generic step handler. Errors it
// returns count as step failures.
func WithGenericExecutor(g GenericExecutor) Option {
	return func(e *Engine) { e.generic = g }
}

// WithBus sets the bus lifecycle events are published to.
func WithBus(b *events.Bus) Option {
	return func(e *Engine) {
		if b != nil {
			e.bus = b
		}
	}
}

// WithStepRecorder sets a step observer.
func WithStepRecorder(r StepRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(traceScope)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// NewEngine creates an engine that decomposes work with planner.
func NewEngine(planner Planner, opts ...Option) *Engine {
	e := &Engine{
		planner: planner,
		generic: GenericExecutorFunc(simulateStep),
		bus:     events.NewBus(),
		tracer:  otel.Tracer(traceScope),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bus returns the bus the engine publishes to.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Run decomposes and executes req. It always returns a result: planning
// failures produce status error with zero steps, and step failures are
// recorded per step without stopping the run.
func (e *Engine) Run(ctx context.Context, req Request) *models.WorkflowResult {
	start := time.Now()
	id := uuid.NewString()
	result := &models.WorkflowResult{WorkflowID: id, Steps: []models.WorkflowStep{}}

	ctx, span := e.tracer.Start(ctx, spanRun, trace.WithAttributes(attribute.String(attrWorkflow, id)))
	defer span.End()

	e.bus.Publish(ctx, events.Started{
		Workflow:   id,
		Input:      req.Input,
		Complexity: req.Complexity.String(),
		At:         start,
	})

	steps, err := e.plan(ctx, req)
	if err != nil {
		result.Status = models.WorkflowStatusError
		result.Error = err.Error()
		result.Duration = time.Since(start)
		e.logger.Warn("workflow planning failed", "workflow_id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.publishCompleted(ctx, result)
		return result
	}

	total := len(steps)
	span.SetAttributes(attribute.Int(attrStepCount, total))
	for i, text := range steps {
		result.Steps = append(result.Steps, e.runStep(ctx, id, i+1, total, text, req))
	}

	result.Aggregate()
	result.Duration = time.Since(start)
	span.SetAttributes(attribute.String(attrStatus, string(result.Status)))
	e.logger.Info("workflow finished",
		"workflow_id", id, "status", result.Status,
		"successful", result.SuccessfulSteps, "failed", result.FailedSteps,
		"duration", result.Duration)
	e.publishCompleted(ctx, result)
	return result
}

func (e *Engine) publishCompleted(ctx context.Context, r *models.WorkflowResult) {
	e.bus.Publish(ctx, events.Completed{
		Workflow:        r.WorkflowID,
		Status:          string(r.Status),
		TotalSteps:      r.TotalSteps,
		SuccessfulSteps: r.SuccessfulSteps,
		FailedSteps:     r.FailedSteps,
		SuccessRate:     r.SuccessRate,
		Error:           r.Error,
		Duration:        r.Duration,
		At:              time.Now(),
	})
}

// plan calls the planner and converts every failure mode into an error.
func (e *Engine) plan(ctx context.Context, req Request) ([]string, error) {
	if e.planner == nil {
		return nil, errors.New("no planner configured")
	}
	ctx, span := e.tracer.Start(ctx, spanPlan)
	defer span.End()

	var (
		resp PlanResponse
		err  error
		pc   panics.Catcher
	)
	pc.Try(func() {
		resp, err = e.planner.Plan(ctx, PlanRequest{
			Input:      req.Input,
			Context:    req.Context,
			Complexity: req.Complexity.String(),
		})
	})
	if r := pc.Recovered(); r != nil {
		err = fmt.Errorf("planner panicked: %v", r.Value)
	}
	switch {
	case err != nil:
		err = fmt.Errorf("decompose task: %w", err)
	case resp.Status != PlanSuccess:
		msg := resp.Message
		if msg == "" {
			msg = "planner reported " + string(resp.Status)
		}
		err = fmt.Errorf("decompose task: %s", msg)
	case len(resp.Steps) == 0:
		err = errors.New("decompose task: planner returned no steps")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp.Steps, nil
}

func (e *Engine) runStep(ctx context.Context, id string, n, total int, text string, req Request) models.WorkflowStep {
	started := time.Now()
	step := models.WorkflowStep{
		StepNumber:  n,
		Description: text,
		Kind:        ClassifyStep(text),
	}

	ctx, span := e.tracer.Start(ctx, spanStep, trace.WithAttributes(
		attribute.String(attrWorkflow, id),
		attribute.Int(attrStep, n),
		attribute.String(attrStepKind, string(step.Kind)),
	))
	defer span.End()

	e.bus.Publish(ctx, events.StepStarted{
		Workflow:    id,
		StepNumber:  n,
		TotalSteps:  total,
		Description: text,
		StepKind:    string(step.Kind),
		At:          started,
	})

	var pc panics.Catcher
	pc.Try(func() {
		e.execute(ctx, &step, req)
	})
	if r := pc.Recovered(); r != nil {
		step.Success = false
		step.Result = ""
		step.Error = fmt.Sprintf("step panicked: %v", r.Value)
	}

	if step.ToolName != "" {
		span.SetAttributes(attribute.String(attrToolName, step.ToolName))
	}
	if !step.Success {
		span.SetStatus(codes.Error, step.Error)
		e.logger.Debug("workflow step failed", "workflow_id", id, "step", n, "error", step.Error)
	}
	if e.recorder != nil {
		e.recorder.ObserveStep(step.Kind, step.Success, time.Since(started))
	}

	e.bus.Publish(ctx, events.StepCompleted{
		Workflow:   id,
		StepNumber: n,
		TotalSteps: total,
		Success:    step.Success,
		Result:     step.Result,
		Error:      step.Error,
		At:         time.Now(),
	})
	return step
}

func (e *Engine) execute(ctx context.Context, step *models.WorkflowStep, req Request) {
	if step.Kind == models.StepKindGeneric {
		out, err := e.generic.Execute(ctx, step.Description, req)
		if err != nil {
			step.Error = err.Error()
			return
		}
		step.Success = true
		step.Result = out
		return
	}

	spec := ExtractToolCall(step.Description)
	step.ToolName = spec.ToolName
	if e.tools == nil {
		step.Error = "no tool user configured"
		return
	}
	outcome := e.tools.Use(ctx, ToolCall{
		ToolName:  spec.ToolName,
		Arguments: spec.Arguments,
		Context:   req.Context,
	})
	step.Success = outcome.Success
	if outcome.Success {
		step.Result = outcome.Result
		return
	}
	step.Error = outcome.Message
	if step.Error == "" {
		step.Error = fmt.Sprintf("tool %s failed", spec.ToolName)
	}
}

// simulateStep is the default generic step: it records the step as done.
func simulateStep(_ context.Context, step string, _ Request) (string, error) {
	return "completed: " + step, nil
}
