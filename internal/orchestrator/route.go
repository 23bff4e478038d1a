package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/internal/state"
	"github.com/ShayCichocki/tandem/pkg/models"
)

const (
	traceScope     = "tandem.orchestrator"
	spanRoute      = "tandem.orchestrator.route"
	attrTask       = "tandem.task_id"
	attrApproach   = "tandem.approach"
	attrComplexity = "tandem.complexity"
	attrWorker     = "tandem.worker"

	// contextWindow is how many prior sequential results a subtask sees.
	contextWindow = 2
)

// Progress stages.
const (
	StageAnalyzing   = "analyzing"
	StageDispatching = "dispatching"
	StageExecuting   = "executing"
	StageAggregating = "aggregating"
)

// subtask is one planned unit of a decomposed task.
type subtask struct {
	task   *models.Task
	domain string
	worker *slot
	output string
	failed bool
}

func (s *subtask) workerName() string {
	if s.worker == nil {
		return ""
	}
	return s.worker.profile.Name
}

// Route classifies description, runs the recommended approach, and returns
// the finished task. It never panics and never returns nil. Worker failures
// are reported in the result text of a completed task; only an internal
// fault marks the task failed. A context that is already done cancels the
// task before any worker runs.
func (o *Orchestrator) Route(ctx context.Context, description string) *models.Task {
	start := time.Now()
	task := models.NewTask(description)

	ctx, span := o.tracer.Start(ctx, spanRoute, trace.WithAttributes(attribute.String(attrTask, task.ID)))
	defer span.End()

	analysis := o.classifier.Classify(description)
	task.Analysis = &analysis
	task.Approach = classifier.Recommend(analysis)
	span.SetAttributes(
		attribute.String(attrApproach, string(task.Approach)),
		attribute.String(attrComplexity, analysis.Complexity.String()),
	)
	o.logger.Info("routing task",
		"task_id", task.ID, "approach", task.Approach,
		"complexity", analysis.Complexity, "domains", analysis.Domains)
	o.notify(ctx, task, progress.Snapshot{Stage: StageAnalyzing, Percentage: 10})

	if err := ctx.Err(); err != nil {
		_ = task.Transition(models.TaskStatusCancelled)
		task.Result = "cancelled: " + err.Error()
		span.SetStatus(codes.Error, task.Result)
		o.finish(ctx, task, nil, start)
		return task
	}
	_ = task.Transition(models.TaskStatusRunning)
	o.metrics.taskStarted()
	defer o.metrics.taskDone()

	var (
		subs []*subtask
		pc   panics.Catcher
	)
	pc.Try(func() { subs = o.dispatch(ctx, task) })
	if r := pc.Recovered(); r != nil {
		task.Result = fmt.Sprintf("internal error: %v", r.Value)
		_ = task.Transition(models.TaskStatusFailed)
		o.logger.Error("route panicked", "task_id", task.ID, "panic", r.Value)
		span.RecordError(r.AsError())
		span.SetStatus(codes.Error, task.Result)
	} else {
		_ = task.Transition(models.TaskStatusCompleted)
	}

	o.finish(ctx, task, subs, start)
	return task
}

func (o *Orchestrator) dispatch(ctx context.Context, task *models.Task) []*subtask {
	switch task.Approach {
	case models.ApproachParallel:
		return o.runParallel(ctx, task)
	case models.ApproachSequential, models.ApproachCollaborative:
		// Collaborative has no negotiation of its own yet.
		return o.runSequential(ctx, task)
	default:
		return o.runSingle(ctx, task)
	}
}

// runSingle hands the whole task to the best matching worker.
func (o *Orchestrator) runSingle(ctx context.Context, task *models.Task) []*subtask {
	child := models.NewTask(task.Description)
	child.Priority = task.Priority
	sub := &subtask{task: child, worker: o.pick(task.Analysis.Domains)}
	task.AssignedWorker = sub.workerName()

	o.notify(ctx, task, progress.Snapshot{
		Stage:       StageExecuting,
		Percentage:  30,
		Workers:     workerNames([]*subtask{sub}),
		CurrentStep: 1,
		TotalSteps:  1,
	})
	o.runSubtask(ctx, sub, task.Description)
	task.Result = sub.output
	o.notify(ctx, task, progress.Snapshot{Stage: StageAggregating, Percentage: 90, CurrentStep: 1, TotalSteps: 1})
	return []*subtask{sub}
}

// runSequential runs one subtask per domain in order. Each subtask depends
// on the previous one and sees the last results as context.
func (o *Orchestrator) runSequential(ctx context.Context, task *models.Task) []*subtask {
	subs := o.decompose(task, true)
	total := len(subs)
	lines := make([]string, 0, total)
	var previous []string

	for i, sub := range subs {
		o.notify(ctx, task, progress.Snapshot{
			Stage:       StageExecuting,
			Percentage:  10 + 80*float64(i)/float64(total),
			Workers:     workerNames(subs),
			CurrentStep: i + 1,
			TotalSteps:  total,
			Description: sub.task.Description,
		})

		prompt := sub.task.Description
		if len(previous) > 0 {
			prompt += "\n\nContext from previous steps:\n" + strings.Join(previous, "\n")
		}
		o.runSubtask(ctx, sub, prompt)

		previous = append(previous, sub.output)
		if len(previous) > contextWindow {
			previous = previous[len(previous)-contextWindow:]
		}
		lines = append(lines, fmt.Sprintf("Step %d [%s]: %s", i+1, sub.workerName(), sub.output))
	}

	task.Result = strings.Join(lines, "\n")
	o.notify(ctx, task, progress.Snapshot{Stage: StageAggregating, Percentage: 90, CurrentStep: total, TotalSteps: total})
	return subs
}

// runParallel launches every subtask together and waits for all of them.
// A failing subtask never cancels its siblings.
func (o *Orchestrator) runParallel(ctx context.Context, task *models.Task) []*subtask {
	subs := o.decompose(task, false)
	total := len(subs)
	names := workerNames(subs)

	o.notify(ctx, task, progress.Snapshot{
		Stage:      StageDispatching,
		Percentage: 20,
		Workers:    names,
		TotalSteps: total,
	})

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	if o.parallelLimit > 0 {
		g.SetLimit(o.parallelLimit)
	}
	for _, sub := range subs {
		g.Go(func() error {
			o.runSubtask(ctx, sub, sub.task.Description)

			mu.Lock()
			defer mu.Unlock()
			done++
			o.notify(ctx, task, progress.Snapshot{
				Stage:       StageExecuting,
				Percentage:  20 + 70*float64(done)/float64(total),
				Workers:     names,
				CurrentStep: done,
				TotalSteps:  total,
				Description: sub.task.Description,
			})
			return nil
		})
	}
	_ = g.Wait()

	lines := make([]string, len(subs))
	for i, sub := range subs {
		lines[i] = fmt.Sprintf("[%s] %s", sub.workerName(), sub.output)
	}
	task.Result = strings.Join(lines, "\n")
	o.notify(ctx, task, progress.Snapshot{Stage: StageAggregating, Percentage: 90, CurrentStep: total, TotalSteps: total})
	return subs
}

// decompose builds one subtask per detected domain. A task with no domains
// becomes a single subtask for the generalist. When chained, each subtask
// depends on the one before it.
func (o *Orchestrator) decompose(task *models.Task, chained bool) []*subtask {
	domains := task.Analysis.Domains
	if len(domains) == 0 {
		o.mu.RLock()
		g := o.generalistSlot()
		o.mu.RUnlock()
		t := models.NewTask(task.Description)
		t.Priority = task.Priority
		return []*subtask{{task: t, worker: g}}
	}

	subs := make([]*subtask, 0, len(domains))
	for _, d := range domains {
		t := models.NewTask(fmt.Sprintf("Handle the %s part of this task: %s", strings.ReplaceAll(d, "_", " "), task.Description))
		t.Priority = task.Priority
		if chained && len(subs) > 0 {
			t.Dependencies = []string{subs[len(subs)-1].task.ID}
		}
		subs = append(subs, &subtask{task: t, domain: d, worker: o.forDomain(d)})
	}
	return subs
}

// runSubtask runs one unit and records its output. Errors and panics become
// the subtask's text.
func (o *Orchestrator) runSubtask(ctx context.Context, sub *subtask, prompt string) {
	_ = sub.task.Transition(models.TaskStatusRunning)
	sub.task.AssignedWorker = sub.workerName()
	defer func() {
		sub.task.Result = sub.output
		_ = sub.task.Transition(models.TaskStatusCompleted)
	}()

	if sub.worker == nil {
		sub.output, sub.failed = "error: no worker available", true
		o.metrics.ObserveSubtask("", false)
		return
	}

	var (
		out string
		err error
		pc  panics.Catcher
	)
	pc.Try(func() { out, err = sub.worker.unit.Run(ctx, prompt) })
	if r := pc.Recovered(); r != nil {
		err = fmt.Errorf("worker %s panicked: %v", sub.workerName(), r.Value)
	}
	if err != nil {
		o.logger.Warn("worker failed",
			"worker", sub.workerName(), "domain", sub.domain, "task_id", sub.task.ID, "error", err)
		sub.output, sub.failed = "error: "+err.Error(), true
	} else {
		sub.output = out
	}
	o.metrics.ObserveSubtask(sub.workerName(), !sub.failed)
}

// notify sends a progress snapshot tagged with the task's approach.
func (o *Orchestrator) notify(ctx context.Context, task *models.Task, s progress.Snapshot) {
	s.Kind = string(task.Approach)
	if s.Description == "" {
		s.Description = task.Description
	}
	if o.maxDuration > 0 {
		s.Metadata = map[string]string{"max_duration": o.maxDuration.String()}
	}
	o.progress.Progress(ctx, task.ID, s)
}

// finish sends the terminal notification and records the task.
func (o *Orchestrator) finish(ctx context.Context, task *models.Task, subs []*subtask, start time.Time) {
	ctx = context.WithoutCancel(ctx)
	elapsed := time.Since(start)

	if task.Status == models.TaskStatusCompleted {
		o.progress.Complete(ctx, task.ID, task.Result)
	} else {
		o.progress.Fail(ctx, task.ID, task.Result)
	}

	o.metrics.ObserveRoute(task.Approach, task.Status, elapsed)
	o.history.add(task.Clone())

	if o.archive != nil {
		records := make([]state.Subtask, 0, len(subs))
		for _, s := range subs {
			records = append(records, state.Subtask{
				Worker:      s.workerName(),
				Description: s.task.Description,
				Output:      s.output,
				Failed:      s.failed,
			})
		}
		if err := o.archive.SaveTask(ctx, task.Clone(), records); err != nil {
			o.logger.Warn("archiving task failed", "task_id", task.ID, "error", err)
		}
	}

	o.logger.Info("task finished",
		"task_id", task.ID, "status", task.Status, "approach", task.Approach,
		"worker", task.AssignedWorker, "subtasks", len(subs), "duration", elapsed)
}

func workerNames(subs []*subtask) []string {
	seen := make(map[string]bool, len(subs))
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		n := s.workerName()
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}
