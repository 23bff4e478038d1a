package tui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/tandem/pkg/models"
)

const cardWidth = 26

// WorkerCard renders one worker status as a bordered card.
type WorkerCard struct {
	status models.WorkerStatus
	width  int
}

// NewWorkerCard creates a card for s.
func NewWorkerCard(s models.WorkerStatus) *WorkerCard {
	return &WorkerCard{status: s, width: cardWidth}
}

// SetWidth sets the card width, border included.
func (c *WorkerCard) SetWidth(width int) {
	c.width = width
}

// View renders the card.
func (c *WorkerCard) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(truncate(c.status.Name, c.width-4)))
	b.WriteString("\n")
	b.WriteString(c.renderState())
	b.WriteString("\n")

	if c.status.Error == "" {
		kind := c.status.Kind
		if kind == "" {
			kind = "unknown"
		}
		b.WriteString(field("Kind", kind))
		b.WriteString("\n")
		b.WriteString(field("Tools", strconv.Itoa(c.status.ToolCount)))
		if len(c.status.Domains) > 0 {
			b.WriteString("\n")
			b.WriteString(field("Domains", truncate(strings.Join(c.status.Domains, ","), c.width-13)))
		}
	} else {
		b.WriteString(failStyle.Render(truncate(c.status.Error, c.width-4)))
	}

	return boxStyle.Width(c.width - 2).Render(b.String())
}

func (c *WorkerCard) renderState() string {
	switch {
	case c.status.Error != "":
		return failStyle.Render(iconFailed + " Unavailable")
	case c.status.Alive:
		return okStyle.Render(iconRunning + " Ready")
	default:
		return mutedStyle.Render(iconPaused + " Stopped")
	}
}

// RenderWorkers lays out one card per worker, sorted by name, wrapping rows
// to fit width.
func RenderWorkers(statuses map[string]models.WorkerStatus, width int) string {
	if len(statuses) == 0 {
		return mutedStyle.Render("No workers running.")
	}
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	perRow := width / cardWidth
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	var row []string
	for _, name := range names {
		s := statuses[name]
		if s.Name == "" {
			s.Name = name
		}
		row = append(row, NewWorkerCard(s).View())
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
