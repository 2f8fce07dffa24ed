package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/adcpctl/internal/adcp"
)

// Palette. Boxes and section titles use PrimaryColor; the rest follow the
// outcome they report.
var (
	PrimaryColor = lipgloss.Color("#2E9CCA")
	SuccessColor = lipgloss.Color("#3FB950")
	ErrorColor   = lipgloss.Color("#F85149")
	WarningColor = lipgloss.Color("#D29922")
	MutedColor   = lipgloss.Color("#6E7681")
	TextColor    = lipgloss.Color("#E6EDF3")
)

// Output stays between these widths whatever the terminal reports.
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func title(c lipgloss.Color) lipgloss.Style {
	return fg(c).Bold(true)
}

// Header block printed before a command runs.
var (
	HeaderTitleStyle      = title(TextColor).PaddingLeft(2)
	HeaderCommandStyle    = fg(MutedColor).PaddingLeft(2)
	HeaderParamKeyStyle   = fg(MutedColor).PaddingLeft(2)
	HeaderParamValueStyle = fg(TextColor)
)

// Step list shown while a command talks to the projector.
var (
	ProgressLabelStyle = fg(TextColor).PaddingLeft(2)
	StepCompleteStyle  = fg(SuccessColor)
	StepRunningStyle   = fg(WarningColor)
	StepPendingStyle   = fg(MutedColor)
	StepNoteStyle      = fg(MutedColor).Italic(true)
)

// Result boxes and reports.
var (
	SuccessTitleStyle = title(SuccessColor)
	ErrorTitleStyle   = title(ErrorColor)
	WarningTitleStyle = title(WarningColor)
	ErrorMessageStyle = fg(ErrorColor)
	SectionTitleStyle = title(PrimaryColor)

	ResultKeyStyle   = fg(MutedColor).Width(22)
	ResultValueStyle = fg(TextColor)

	TroubleshootingTitleStyle = title(MutedColor)
	TroubleshootingItemStyle  = fg(MutedColor)
)

const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	StepMarkerSkipped  = "⊘"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
	WarningMarker      = "⚠"
)

// PowerStyle colors a power_status value: green when on, amber while
// warming up or cooling down, muted otherwise.
func PowerStyle(state string) lipgloss.Style {
	switch strings.ToLower(state) {
	case adcp.PowerStateOn:
		return fg(SuccessColor).Bold(true)
	case adcp.PowerStateStartup, adcp.PowerStateCooling1, adcp.PowerStateCooling2:
		return fg(WarningColor)
	default:
		return fg(MutedColor)
	}
}

// terminalSize reports the stdout size with the width clamped to the
// supported range. ok is false when stdout is not a terminal.
func terminalSize() (width, height int, ok bool) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24, false
	}
	return min(clampWidth(w), MaxContentWidth), h, true
}

// GetTerminalWidth returns the width to render boxes at.
func GetTerminalWidth() int {
	w, _, _ := terminalSize()
	return w
}

// GetTerminalSize returns the clamped width and the terminal height.
func GetTerminalSize() (int, int) {
	w, h, _ := terminalSize()
	return w, h
}

// IsTerminal reports whether stdout is an interactive terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clampWidth(width int) int {
	return max(width, MinTerminalWidth)
}

func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2)
}

// ResultBoxStyle frames a result or report in color.
func ResultBoxStyle(width int, color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2)
}

// TroubleshootingBoxStyle is indented inside a failure box.
func TroubleshootingBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3)
}

func RenderHorizontalDivider(width int, char string) string {
	return fg(PrimaryColor).Render(strings.Repeat(char, width))
}
