package cli

import "github.com/charmbracelet/lipgloss"

const (
	markOK   = "✓"
	markFail = "✗"
	markSkip = "-"
)

type theme struct {
	title lipgloss.Style
	faint lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
	skip  lipgloss.Style
}

var styles = theme{
	title: lipgloss.NewStyle().Bold(true),
	faint: lipgloss.NewStyle().Faint(true),
	ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	skip:  lipgloss.NewStyle().Faint(true),
}
