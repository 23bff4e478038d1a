package progress

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/tandem/internal/events"
)

// Bridge subscribes b to workflow events on bus and turns them into progress
// notifications keyed by workflow id. The returned function detaches it.
func Bridge(bus *events.Bus, b *Broadcaster) (detach func()) {
	handler := func(ctx context.Context, ev events.Event) error {
		switch e := ev.(type) {
		case events.Started:
			b.Progress(ctx, e.Workflow, Snapshot{
				Stage:       "planning",
				Kind:        "workflow",
				Description: e.Input,
				Metadata:    map[string]string{"complexity": e.Complexity},
			})
		case events.StepStarted:
			b.Progress(ctx, e.Workflow, Snapshot{
				Stage:       "executing",
				Kind:        "workflow",
				Percentage:  stepPercent(e.StepNumber-1, e.TotalSteps),
				CurrentStep: e.StepNumber,
				TotalSteps:  e.TotalSteps,
				Description: e.Description,
			})
		case events.StepCompleted:
			desc := fmt.Sprintf("step %d completed", e.StepNumber)
			if !e.Success {
				desc = fmt.Sprintf("step %d failed: %s", e.StepNumber, e.Error)
			}
			b.Progress(ctx, e.Workflow, Snapshot{
				Stage:       "executing",
				Kind:        "workflow",
				Percentage:  stepPercent(e.StepNumber, e.TotalSteps),
				CurrentStep: e.StepNumber,
				TotalSteps:  e.TotalSteps,
				Description: desc,
			})
		case events.Completed:
			if e.Status == "error" {
				b.Fail(ctx, e.Workflow, e.Error)
				return nil
			}
			b.Complete(ctx, e.Workflow, fmt.Sprintf("%s: %d/%d steps succeeded",
				e.Status, e.SuccessfulSteps, e.TotalSteps))
		}
		return nil
	}

	ids := bus.SubscribeAll(handler)
	return func() {
		for i, kind := range events.Kinds() {
			bus.Unsubscribe(kind, ids[i])
		}
	}
}

func stepPercent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
