package main

import "github.com/charmbracelet/lipgloss"

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	styleFaint   = lipgloss.NewStyle().Faint(true)
	styleBody    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func renderHeading(s string) string { return styleHeading.Render(s) }
func renderSuccess(s string) string { return styleSuccess.Render(s) }
func renderWarning(s string) string { return styleWarning.Render(s) }
func renderFaint(s string) string   { return styleFaint.Render(s) }
func renderBody(s string) string    { return styleBody.Render(s) }
