package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the tandem banner.
type Header struct {
	width int
}

// NewHeader creates a new Header.
func NewHeader() *Header {
	return &Header{width: 80}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	colors := []string{"#FF6B6B", "#FF8E53", "#FFC857", "#4ECDC4", "#45B7D1"}

	logo := []string{
		"▀█▀ ▄▀█ █▄ █ █▀▄ █▀▀ █▀▄▀█",
		" █  █▀█ █ ▀█ █▄▀ ██▄ █ ▀ █",
	}

	var styled []string
	for i, line := range logo {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i%len(colors)])).Bold(true)
		styled = append(styled, style.Render(line))
	}
	logoBlock := lipgloss.JoinVertical(lipgloss.Left, styled...)

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true).
		Render("task router for specialist workers")

	return lipgloss.NewStyle().
		Width(h.width).
		Align(lipgloss.Center).
		PaddingBottom(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, logoBlock, subtitle))
}
