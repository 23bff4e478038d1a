// Package agent provides the execution units (workers) the orchestrator
// routes tasks to, and the profiles they are built from.
package agent

import (
	"context"
	"errors"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// Worker kinds reported in status snapshots.
const (
	KindSpecialist = "specialist"
	KindGeneralist = "generalist"
)

var (
	// ErrClosed is returned by Run after Cleanup.
	ErrClosed = errors.New("worker is closed")
	// ErrInvalidProfile indicates a profile that cannot be built.
	ErrInvalidProfile = errors.New("invalid worker profile")
)

// Unit is one worker in the orchestrator's pool.
type Unit interface {
	// Name is the pool slot the unit occupies.
	Name() string
	// Run performs a task description and returns its text result.
	Run(ctx context.Context, description string) (string, error)
	// Status reports the unit's liveness and capabilities.
	Status(ctx context.Context) (models.WorkerStatus, error)
	// Cleanup releases the unit's resources. Run fails afterwards.
	Cleanup(ctx context.Context) error
}
