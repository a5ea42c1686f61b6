package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/paneron/internal/register"
)

var (
	textMutedColor     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#696969"}
	textTitleColor     = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#89B4FA"}
	statusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	statusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	statusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(textTitleColor)
	styleMuted   = lipgloss.NewStyle().Foreground(textMutedColor)
	styleSuccess = lipgloss.NewStyle().Foreground(statusSuccessColor)
	styleWarning = lipgloss.NewStyle().Foreground(statusWarningColor)
	styleError   = lipgloss.NewStyle().Foreground(statusErrorColor)
)

// statusStyle colors an item status by how settled it is.
func statusStyle(s register.ItemStatus) lipgloss.Style {
	switch s {
	case register.ItemStatusValid:
		return styleSuccess
	case register.ItemStatusSubmitted:
		return styleWarning
	case register.ItemStatusInvalid:
		return styleError
	default:
		return styleMuted
	}
}
