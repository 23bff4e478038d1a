package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/tandem/internal/workflow"
)

const defaultMaxSteps = 10

const plannerSystemPrompt = `You break tasks into short, ordered, executable steps.
Each step is one imperative sentence that starts with a verb such as search, fetch, read, write, compute, list, run or summarize.
Respond with JSON only, no prose:
{"steps": ["first step", "second step"]}`

// Planner is a workflow.Planner backed by the Messages API.
type Planner struct {
	runner   *Runner
	maxSteps int
}

// NewPlanner creates an LLM planner. maxSteps <= 0 uses the default of 10.
func NewPlanner(runner *Runner, maxSteps int) *Planner {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	return &Planner{runner: runner, maxSteps: maxSteps}
}

type planPayload struct {
	Steps []string `json:"steps"`
}

// Plan implements workflow.Planner. Transport failures are returned as
// errors; an unusable model answer is reported as a PlanError response.
func (p *Planner) Plan(ctx context.Context, req workflow.PlanRequest) (workflow.PlanResponse, error) {
	if strings.TrimSpace(req.Input) == "" {
		return workflow.PlanResponse{Status: workflow.PlanError, Message: "nothing to plan: input is empty"}, nil
	}

	response, err := p.runner.RunWithSystem(ctx, plannerSystemPrompt, planPrompt(req, p.maxSteps))
	if err != nil {
		return workflow.PlanResponse{}, err
	}

	var payload planPayload
	if err := DecodeJSON(response, &payload); err != nil {
		return workflow.PlanResponse{Status: workflow.PlanError, Message: err.Error()}, nil
	}

	steps := make([]string, 0, len(payload.Steps))
	for _, s := range payload.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return workflow.PlanResponse{Status: workflow.PlanError, Message: "planner returned no steps"}, nil
	}
	truncated := len(steps) > p.maxSteps
	if truncated {
		steps = steps[:p.maxSteps]
	}

	return workflow.PlanResponse{
		Status: workflow.PlanSuccess,
		Steps:  steps,
		Metadata: map[string]any{
			"planner":   "llm",
			"model":     string(p.runner.client.Model()),
			"truncated": truncated,
		},
	}, nil
}

func planPrompt(req workflow.PlanRequest, maxSteps int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task:\n%s\n", req.Input)
	if req.Context != "" {
		fmt.Fprintf(&sb, "\nContext:\n%s\n", req.Context)
	}
	if req.Complexity != "" {
		fmt.Fprintf(&sb, "\nEstimated complexity: %s\n", req.Complexity)
	}
	fmt.Fprintf(&sb, "\nUse at most %d steps.", maxSteps)
	return sb.String()
}
