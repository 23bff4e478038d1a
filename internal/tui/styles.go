package tui

import "github.com/charmbracelet/lipgloss"

// Status icons.
const (
	iconRunning = "[●]"
	iconDone    = "[✓]"
	iconFailed  = "[✗]"
	iconPaused  = "[◌]"
	iconPending = "[○]"
)

var (
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true)
	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#45B7D1"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// field renders "label: value" in the label and value styles.
func field(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}
