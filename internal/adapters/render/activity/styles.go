package activity

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	server    lipgloss.Style
	user      lipgloss.Style
	detail    lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	exempt    lipgloss.Style
	within    lipgloss.Style
	violating lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		server:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		exempt:    lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		within:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		violating: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
