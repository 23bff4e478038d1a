package workflow

import (
	"context"
	"regexp"
	"strings"
)

// PlanStatus is the outcome reported by a Planner.
type PlanStatus string

const (
	PlanSuccess PlanStatus = "success"
	PlanError   PlanStatus = "error"
)

// PlanRequest is the input to a Planner.
type PlanRequest struct {
	Input      string `json:"input"`
	Context    string `json:"context,omitempty"`
	Complexity string `json:"complexity,omitempty"`
}

// PlanResponse is either a successful list of steps or an error message.
type PlanResponse struct {
	Status   PlanStatus     `json:"status"`
	Steps    []string       `json:"steps,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// Planner decomposes a task into ordered step descriptions.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (PlanResponse, error)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, req PlanRequest) (PlanResponse, error)

// Plan calls f.
func (f PlannerFunc) Plan(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	return f(ctx, req)
}

// StaticPlanner returns a fixed list of steps. With no steps configured it
// splits the input text instead.
type StaticPlanner struct {
	Steps []string
}

// Plan implements Planner.
func (p StaticPlanner) Plan(_ context.Context, req PlanRequest) (PlanResponse, error) {
	steps := p.Steps
	if len(steps) == 0 {
		steps = SplitSteps(req.Input)
	}
	if len(steps) == 0 {
		return PlanResponse{Status: PlanError, Message: "nothing to plan: input is empty"}, nil
	}
	return PlanResponse{
		Status:   PlanSuccess,
		Steps:    append([]string(nil), steps...),
		Metadata: map[string]any{"planner": "static"},
	}, nil
}

var (
	numberedLine = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)
	stepBreak    = regexp.MustCompile(`(?i)(?:[.;]\s+|,?\s+\b(?:and then|then|after that|finally)\b\s*)`)
)

// SplitSteps breaks free text into step descriptions. Multi-line input is
// split per line (list markers removed); a single line is split on sentence
// boundaries and sequencing words.
func SplitSteps(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var parts []string
	if strings.Contains(text, "\n") {
		for _, line := range strings.Split(text, "\n") {
			parts = append(parts, numberedLine.ReplaceAllString(line, ""))
		}
	} else {
		parts = stepBreak.Split(text, -1)
	}

	steps := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), ".;,"))
		if p != "" {
			steps = append(steps, p)
		}
	}
	return steps
}
