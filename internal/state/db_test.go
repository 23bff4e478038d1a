package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/tandem/pkg/models"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenArchive(tempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b", "c")
	path := filepath.Join(nested, "test.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	_, err = os.Stat(nested)
	assert.NoError(t, err)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/proc/nonexistent/test.db")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Migrate())

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, "/data/tandem/tasks.db", DefaultPath())
}

func finishedTask(t *testing.T, desc string, created time.Time) models.Task {
	t.Helper()
	task := models.NewTask(desc)
	task.CreatedAt = created
	task.Approach = models.ApproachSequential
	task.AssignedWorker = "researcher"
	task.Dependencies = []string{"dep-1"}
	task.Analysis = &models.TaskAnalysis{
		Complexity:     models.ComplexityModerate,
		Domains:        []string{"research", "writing"},
		EstimatedSteps: 3,
		ToolsNeeded:    []string{"web_search"},
	}
	require.NoError(t, task.Transition(models.TaskStatusRunning))
	task.Result = "done"
	require.NoError(t, task.Transition(models.TaskStatusCompleted))
	return task.Clone()
}

func TestSaveAndGetTask(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := finishedTask(t, "research and write", time.Now().Add(-time.Minute))
	subtasks := []Subtask{
		{Worker: "researcher", Description: "research", Output: "facts"},
		{Worker: "writer", Description: "write", Output: "error: boom", Failed: true},
	}
	require.NoError(t, db.SaveTask(ctx, task, subtasks))

	got, gotSubs, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Description, got.Description)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, models.ApproachSequential, got.Approach)
	assert.Equal(t, "researcher", got.AssignedWorker)
	assert.Equal(t, "done", got.Result)
	assert.Equal(t, []string{"dep-1"}, got.Dependencies)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, models.ComplexityModerate, got.Analysis.Complexity)
	assert.Equal(t, []string{"research", "writing"}, got.Analysis.Domains)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(*got.CompletedAt))
	assert.Equal(t, subtasks, gotSubs)
}

func TestSaveTask_Replaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := finishedTask(t, "x", time.Now())
	require.NoError(t, db.SaveTask(ctx, task, []Subtask{{Worker: "a", Description: "1"}, {Worker: "b", Description: "2"}}))

	task.Result = "updated"
	require.NoError(t, db.SaveTask(ctx, task, []Subtask{{Worker: "c", Description: "3"}}))

	got, subs, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Result)
	require.Len(t, subs, 1)
	assert.Equal(t, "c", subs[0].Worker)
}

func TestGetTask_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, _, err := db.GetTask(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestRecentTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, desc := range []string{"first", "second", "third"} {
		task := finishedTask(t, desc, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, db.SaveTask(ctx, task, nil))
	}

	tasks, err := db.RecentTasks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "third", tasks[0].Description)
	assert.Equal(t, "second", tasks[1].Description)

	all, err := db.RecentTasks(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecentTasks_NilAnalysis(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := models.NewTask("bare")
	require.NoError(t, db.SaveTask(ctx, task.Clone(), nil))

	tasks, err := db.RecentTasks(ctx, 5)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].Analysis)
	assert.Nil(t, tasks[0].CompletedAt)
	assert.Empty(t, tasks[0].Dependencies)
	assert.Equal(t, models.TaskStatusPending, tasks[0].Status)
}

func TestPurgeOlderThan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := finishedTask(t, "old", time.Now().Add(-48*time.Hour))
	fresh := finishedTask(t, "fresh", time.Now())
	require.NoError(t, db.SaveTask(ctx, old, []Subtask{{Worker: "w", Description: "d"}}))
	require.NoError(t, db.SaveTask(ctx, fresh, nil))

	n, err := db.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	tasks, err := db.RecentTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "fresh", tasks[0].Description)
}
