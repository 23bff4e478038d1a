package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/pkg/models"
)

// RenderTask renders a finished task: a status line, its routing details and
// the result body.
func RenderTask(t *models.Task) string {
	if t == nil {
		return mutedStyle.Render("No task.")
	}

	var b strings.Builder
	b.WriteString(statusLabel(t.Status))
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(truncate(t.Description, 72)))
	b.WriteString("\n")

	b.WriteString(field("ID", t.ID))
	b.WriteString("\n")
	if t.Approach != "" {
		b.WriteString(field("Approach", string(t.Approach)))
		b.WriteString("\n")
	}
	if t.Analysis != nil {
		b.WriteString(field("Complexity", t.Analysis.Complexity.String()))
		b.WriteString("\n")
		b.WriteString(field("Domains", listOrNone(t.Analysis.Domains)))
		b.WriteString("\n")
	}
	if t.AssignedWorker != "" {
		b.WriteString(field("Worker", t.AssignedWorker))
		b.WriteString("\n")
	}
	if t.CompletedAt != nil {
		b.WriteString(field("Duration", formatDuration(t.CompletedAt.Sub(t.CreatedAt))))
		b.WriteString("\n")
	}

	if t.Result != "" {
		b.WriteString("\n")
		b.WriteString(renderResult(t.Result))
	}
	return b.String()
}

// renderResult colors lines that carry an embedded worker error.
func renderResult(result string) string {
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		if strings.Contains(line, "error: ") {
			lines[i] = warnStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// RenderAnalysis renders a classification and the rule that picked its
// approach.
func RenderAnalysis(a models.TaskAnalysis, rec classifier.Recommendation) string {
	var b strings.Builder
	b.WriteString(accentStyle.Render(string(rec.Approach)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  (rule %d: %s)", rec.Rule, rec.Reason)))
	b.WriteString("\n")

	rows := [][2]string{
		{"Complexity", a.Complexity.String()},
		{"Domains", listOrNone(a.Domains)},
		{"Tools", listOrNone(a.ToolsNeeded)},
		{"Estimated steps", fmt.Sprint(a.EstimatedSteps)},
		{"Specialization", yesNo(a.RequiresSpecialization)},
		{"Parallel", yesNo(a.ParallelPotential)},
		{"Collaboration", yesNo(a.CollaborationNeeded)},
	}
	for _, r := range rows {
		b.WriteString(field(r[0], r[1]))
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderHistory renders one line per task, oldest first.
func RenderHistory(tasks []models.Task) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks yet.")
	}
	var b strings.Builder
	for _, t := range tasks {
		worker := t.AssignedWorker
		if worker == "" {
			worker = "-"
		}
		fmt.Fprintf(&b, "%s %s  %-13s %-12s %s\n",
			statusLabel(t.Status),
			mutedStyle.Render(t.CreatedAt.Format(time.DateTime)),
			string(t.Approach),
			worker,
			truncate(t.Description, 60))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusLabel(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return okStyle.Render(iconDone)
	case models.TaskStatusFailed:
		return failStyle.Render(iconFailed)
	case models.TaskStatusCancelled:
		return mutedStyle.Render(iconPaused)
	case models.TaskStatusRunning:
		return okStyle.Render(iconRunning)
	default:
		return mutedStyle.Render(iconPending)
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
