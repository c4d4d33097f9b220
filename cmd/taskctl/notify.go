package main

import (
	"fmt"
	"os"

	"action_items/internal/syncer"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// consoleNotifier prints notifications to stderr so stdout stays parseable.
type consoleNotifier struct{}

func newConsoleNotifier() syncer.Notifier { return consoleNotifier{} }

func (consoleNotifier) Notify(level syncer.Level, message string) {
	var style lipgloss.Style
	var icon string
	switch level {
	case syncer.LevelSuccess:
		style, icon = successStyle, "✓"
	case syncer.LevelWarning:
		style, icon = warningStyle, "!"
	case syncer.LevelError:
		style, icon = errorStyle, "✗"
	default:
		style, icon = infoStyle, "•"
	}
	fmt.Fprintln(os.Stderr, style.Render(icon+" "+message))
}
