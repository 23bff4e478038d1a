package tui

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/tandem/internal/progress"
)

const barWidth = 20

// ProgressLine renders a notification as a single line suitable for
// redrawing with a carriage return.
func ProgressLine(n progress.Notification) string {
	switch n.Type {
	case progress.TypeCompleted:
		return okStyle.Render(iconDone + " done")
	case progress.TypeFailed:
		return failStyle.Render(iconFailed + " failed: " + truncate(n.Error, 60))
	}
	if n.Progress == nil {
		return ""
	}
	s := n.Progress

	var b strings.Builder
	b.WriteString(renderBar(s.Percentage))
	fmt.Fprintf(&b, " %3.0f%% ", s.Percentage)
	b.WriteString(accentStyle.Render(s.Stage))
	if s.TotalSteps > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" %d/%d", s.CurrentStep, s.TotalSteps)))
	}
	if len(s.Workers) > 0 {
		b.WriteString(mutedStyle.Render(" " + strings.Join(s.Workers, ",")))
	}
	return b.String()
}

func renderBar(pct float64) string {
	filled := int(pct / 100 * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}
