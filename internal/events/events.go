// Package events carries workflow lifecycle events from the engine to
// anything that wants to observe a run.
package events

import "time"

// Kind identifies an event variant. Subscriptions are keyed by Kind.
type Kind string

const (
	KindStarted       Kind = "workflow_started"
	KindStepStarted   Kind = "workflow_step_started"
	KindStepCompleted Kind = "workflow_step_completed"
	KindCompleted     Kind = "workflow_completed"
)

// Kinds lists every event kind in lifecycle order.
func Kinds() []Kind {
	return []Kind{KindStarted, KindStepStarted, KindStepCompleted, KindCompleted}
}

// Event is one of Started, StepStarted, StepCompleted or Completed.
type Event interface {
	Kind() Kind
	WorkflowID() string
	isEvent()
}

// Started is published once before planning.
type Started struct {
	Workflow   string    `json:"workflow_id"`
	Input      string    `json:"input"`
	Complexity string    `json:"complexity,omitempty"`
	At         time.Time `json:"timestamp"`
}

// StepStarted is published before a step executes.
type StepStarted struct {
	Workflow    string    `json:"workflow_id"`
	StepNumber  int       `json:"step_number"`
	TotalSteps  int       `json:"total_steps"`
	Description string    `json:"description"`
	StepKind    string    `json:"step_kind"`
	At          time.Time `json:"timestamp"`
}

// StepCompleted is published after a step finished, successfully or not.
type StepCompleted struct {
	Workflow   string    `json:"workflow_id"`
	StepNumber int       `json:"step_number"`
	TotalSteps int       `json:"total_steps"`
	Success    bool      `json:"success"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"timestamp"`
}

// Completed is published once when the run ends, including planning failures.
type Completed struct {
	Workflow        string        `json:"workflow_id"`
	Status          string        `json:"status"`
	TotalSteps      int           `json:"total_steps"`
	SuccessfulSteps int           `json:"successful_steps"`
	FailedSteps     int           `json:"failed_steps"`
	SuccessRate     float64       `json:"success_rate"`
	Error           string        `json:"error,omitempty"`
	Duration        time.Duration `json:"duration"`
	At              time.Time     `json:"timestamp"`
}

func (Started) Kind() Kind       { return KindStarted }
func (StepStarted) Kind() Kind   { return KindStepStarted }
func (StepCompleted) Kind() Kind { return KindStepCompleted }
func (Completed) Kind() Kind     { return KindCompleted }

func (e Started) WorkflowID() string       { return e.Workflow }
func (e StepStarted) WorkflowID() string   { return e.Workflow }
func (e StepCompleted) WorkflowID() string { return e.Workflow }
func (e Completed) WorkflowID() string     { return e.Workflow }

func (Started) isEvent()       {}
func (StepStarted) isEvent()   {}
func (StepCompleted) isEvent() {}
func (Completed) isEvent()     {}
