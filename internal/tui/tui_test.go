package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/pkg/models"
)

func TestRenderWorkers(t *testing.T) {
	out := RenderWorkers(map[string]models.WorkerStatus{
		"coder":   {Name: "coder", Kind: "specialist", Alive: true, ToolCount: 5, Domains: []string{"coding"}},
		"analyst": {Name: "analyst", Error: "introspection unavailable"},
	}, 80)

	assert.Contains(t, out, "coder")
	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "Tools: 5")
	assert.Contains(t, out, "Unavailable")
	assert.Less(t, strings.Index(out, "analyst"), strings.Index(out, "coder"), "cards are sorted by name")
}

func TestRenderWorkers_Empty(t *testing.T) {
	assert.Equal(t, "No workers running.", RenderWorkers(nil, 80))
}

func TestRenderTask(t *testing.T) {
	task := models.NewTask("Research Rome and calculate 3+4")
	task.Approach = models.ApproachParallel
	task.Analysis = &models.TaskAnalysis{Complexity: models.ComplexityModerate, Domains: []string{"research", "math"}}
	_ = task.Transition(models.TaskStatusRunning)
	task.Result = "[researcher] error: offline\n[analyst] 7"
	_ = task.Transition(models.TaskStatusCompleted)

	out := RenderTask(task)

	assert.Contains(t, out, iconDone)
	assert.Contains(t, out, "Approach: parallel")
	assert.Contains(t, out, "Domains: research, math")
	assert.Contains(t, out, "[researcher] error: offline")
	assert.Contains(t, out, "[analyst] 7")
}

func TestRenderAnalysis(t *testing.T) {
	a := classifier.Classify("What is 2+2")

	out := RenderAnalysis(a, classifier.Explain(a))

	assert.Contains(t, out, "single")
	assert.Contains(t, out, "Complexity: simple")
	assert.Contains(t, out, "Domains: math")
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "No tasks yet.", RenderHistory(nil))

	task := models.NewTask("write a haiku")
	task.Approach = models.ApproachSingle
	task.AssignedWorker = "writer"
	out := RenderHistory([]models.Task{*task})

	assert.Contains(t, out, "writer")
	assert.Contains(t, out, "write a haiku")
	assert.Equal(t, 1, strings.Count(out, "\n")+1)
}

func TestProgressLine(t *testing.T) {
	line := ProgressLine(progress.Notification{
		Type: progress.TypeProgress,
		Progress: &progress.Snapshot{
			Stage: "executing", Percentage: 50, CurrentStep: 2, TotalSteps: 4, Workers: []string{"coder"},
		},
	})
	assert.Contains(t, line, " 50% ")
	assert.Contains(t, line, "executing")
	assert.Contains(t, line, "2/4")
	assert.Contains(t, line, "coder")
	assert.Equal(t, barWidth/2, strings.Count(line, "█"))

	assert.Contains(t, ProgressLine(progress.Notification{Type: progress.TypeCompleted}), "done")
	assert.Contains(t, ProgressLine(progress.Notification{Type: progress.TypeFailed, Error: "boom"}), "failed: boom")
	assert.Empty(t, ProgressLine(progress.Notification{Type: progress.TypeProgress}))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{12 * time.Second, "12s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{2*time.Hour + 7*time.Minute, "2h07m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 6))
	assert.Equal(t, "hé", truncate("héllo", 2))
}

func TestHeader(t *testing.T) {
	h := NewHeader()
	h.SetWidth(40)
	assert.Contains(t, h.View(), "task router")
}
