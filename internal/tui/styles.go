package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pratik-anurag/porter/internal/model"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("230"))
)

// badge renders a TCP state as a coloured pill.
func badge(s model.TCPState) string {
	if s == model.StateNone {
		return ""
	}
	bg := lipgloss.Color("240")
	switch s {
	case model.StateListen:
		bg = lipgloss.Color("33")
	case model.StateEstablished:
		bg = lipgloss.Color("34")
	case model.StateClosed:
		bg = lipgloss.Color("160")
	}
	return badgeStyle.Background(bg).Render(string(s))
}
