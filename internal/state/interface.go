package state

import (
	"context"
	"io"
	"time"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// Subtask is one unit of a decomposed task as the orchestrator ran it.
type Subtask struct {
	Worker      string `json:"worker"`
	Description string `json:"description"`
	Output      string `json:"output"`
	Failed      bool   `json:"failed"`
}

// Archive records finished tasks. Hosts treat archive failures as
// non-fatal.
type Archive interface {
	SaveTask(ctx context.Context, task models.Task, subtasks []Subtask) error
	RecentTasks(ctx context.Context, limit int) ([]models.Task, error)
}

// Store is the full archive backed by a database file.
type Store interface {
	io.Closer
	Archive
	GetTask(ctx context.Context, id string) (*models.Task, []Subtask, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
	Migrate() error
}

var (
	_ Archive = (*DB)(nil)
	_ Store   = (*DB)(nil)
)
