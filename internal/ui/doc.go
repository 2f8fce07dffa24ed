// Package ui provides terminal UI components for the adcpctl CLI.
//
// This package uses Bubble Tea, Bubbles and Lipgloss to render polished
// terminal output for projector commands. The components follow a "run once
// and exit" pattern: they render output compellingly but don't require user
// interaction.
//
// # Architecture
//
// The UI package provides these component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with step list showing real-time status
//   - Result: Success/failure/warning boxes with styled information
//   - RenderStatus / RenderCatalog: boxed reports
//
// These components are orchestrated by the Runner, which manages the
// header → progress → result flow. StepCommander wraps a session so each
// command it sends shows up as a step.
//
// # Usage Pattern
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Projector Status",
//	    Command:   "adcpctl status",
//	    Params:    []ui.Field{ui.F("Projector", "192.168.1.50:53595")},
//	    StepNames: []string{"Model name", "Serial number"},
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Field, error) {
//	    st, err := adcp.ReadStatus(ctx, &ui.StepCommander{Next: session, OnStep: onStep})
//	    ...
//	})
//
// Failure boxes take their troubleshooting tips from adcp.TroubleshootingHint
// unless the caller supplies its own.
//
// # Logging Integration
//
// This package expects logging to be controlled via the ADCP_LOG_LEVEL
// environment variable or --log-level. When unset, zap logging is silent and
// logs go to stderr, so the curated UI output on stdout stays clean.
package ui
