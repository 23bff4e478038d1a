package models

import "time"

// StepKind tells whether a workflow step needs a tool.
type StepKind string

const (
	StepKindTool    StepKind = "tool"
	StepKindGeneric StepKind = "generic"
)

// WorkflowStatus is the aggregate outcome of a workflow run.
type WorkflowStatus string

const (
	WorkflowStatusSuccess        WorkflowStatus = "success"
	WorkflowStatusPartialSuccess WorkflowStatus = "partial_success"
	WorkflowStatusError          WorkflowStatus = "error"
)

// WorkflowStep is one executed step of a decomposed workflow.
type WorkflowStep struct {
	StepNumber  int      `json:"step_number"`
	Description string   `json:"description"`
	Kind        StepKind `json:"kind"`
	ToolName    string   `json:"tool_name,omitempty"`
	Success     bool     `json:"success"`
	Result      string   `json:"result,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// WorkflowResult is the structured outcome of a workflow run.
type WorkflowResult struct {
	WorkflowID      string         `json:"workflow_id"`
	TotalSteps      int            `json:"total_steps"`
	SuccessfulSteps int            `json:"successful_steps"`
	FailedSteps     int            `json:"failed_steps"`
	SuccessRate     float64        `json:"success_rate"`
	Status          WorkflowStatus `json:"status"`
	Steps           []WorkflowStep `json:"steps"`
	Error           string         `json:"error,omitempty"`
	Duration        time.Duration  `json:"duration"`
}

// Aggregate fills the counters, success rate and status from Steps.
// Status is success when no step failed and partial_success otherwise,
// including when every step failed. It never produces WorkflowStatusError,
// which is reserved for runs whose decomposition failed.
func (r *WorkflowResult) Aggregate() {
	r.TotalSteps = len(r.Steps)
	r.SuccessfulSteps = 0
	r.FailedSteps = 0
	for _, s := range r.Steps {
		if s.Success {
			r.SuccessfulSteps++
		} else {
			r.FailedSteps++
		}
	}

	r.SuccessRate = 0
	if r.TotalSteps > 0 {
		r.SuccessRate = float64(r.SuccessfulSteps) / float64(r.TotalSteps)
	}

	r.Status = WorkflowStatusSuccess
	if r.FailedSteps > 0 {
		r.Status = WorkflowStatusPartialSuccess
	}
}
