package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidTransition is returned when a task status change would move
// backwards or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid task status transition")

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being worked on.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished and carries a result.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates an internal fault stopped the task.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled indicates the task was abandoned before it ran.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true for completed, failed and cancelled.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// rank orders statuses so transitions can only move forward.
func (s TaskStatus) rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusRunning:
		return 1
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return 2
	default:
		return -1
	}
}

// Priority is the requested urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Task represents one unit of requested work.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Description is the free-text request.
	Description string `json:"description"`
	// Priority is the requested urgency.
	Priority Priority `json:"priority"`
	// Dependencies lists task IDs that must complete before this task.
	Dependencies []string `json:"dependencies,omitempty"`
	// AssignedWorker is the name of the worker that ran the task, if any.
	AssignedWorker string `json:"assigned_worker,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Result is the aggregated textual output.
	Result string `json:"result,omitempty"`
	// Approach is the execution strategy chosen for the task.
	Approach Approach `json:"approach,omitempty"`
	// Analysis is the classification the approach was derived from.
	Analysis *TaskAnalysis `json:"analysis,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTask creates a pending task with a fresh identity.
func NewTask(description string) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Description: description,
		Priority:    PriorityNormal,
		Status:      TaskStatusPending,
		CreatedAt:   time.Now(),
	}
}

// Transition moves the task to the given status.
// Statuses only move forward: pending -> running -> terminal. A terminal
// status never changes again.
func (t *Task) Transition(to TaskStatus) error {
	if !to.Valid() {
		return goerr.Wrap(ErrInvalidTransition, "unknown status",
			goerr.V("task_id", t.ID), goerr.V("to", to))
	}
	if t.Status.Terminal() || to.rank() <= t.Status.rank() {
		return goerr.Wrap(ErrInvalidTransition, "status cannot regress",
			goerr.V("task_id", t.ID), goerr.V("from", t.Status), goerr.V("to", to))
	}

	t.Status = to
	if to.Terminal() {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// Clone returns a deep copy safe to hand to other goroutines.
func (t *Task) Clone() Task {
	c := *t
	if t.Dependencies != nil {
		c.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.Analysis != nil {
		a := t.Analysis.Clone()
		c.Analysis = &a
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}
