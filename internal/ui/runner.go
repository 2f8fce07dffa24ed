package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/adcpctl/internal/adcp"
)

// RunnerConfig holds configuration for a projector command execution
type RunnerConfig struct {
	Title     string    // Command title (e.g., "Projector Status")
	Command   string    // Full command (e.g., "adcpctl status")
	Params    []Field   // Parameters to display in header
	StepNames []string  // Names for each step; no step list when empty
	Output    io.Writer // Output writer (default: os.Stdout)
	Width     int       // Render width (default: terminal width)
}

// Runner orchestrates the UI for one projector command: header, step
// progress, then a success or failure box.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	width    int
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}

	header := NewHeader(config.Title, config.Command, config.Params).SetWidth(width)

	var prog *Progress
	if len(config.StepNames) > 0 {
		prog = NewProgress("", len(config.StepNames)).SetWidth(width).SetStepNames(config.StepNames)
	}

	return &Runner{
		config:   config,
		header:   header,
		progress: prog,
		output:   config.Output,
		width:    width,
	}
}

// Operation is the work a Runner executes. It reports progress through
// onStep and returns the details to show in the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Field, error)

// Run executes the operation with UI updates and returns its error.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(ctx, r.stepCallback())
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		result := NewFailureResult(r.config.Title+" failed", err, nil)
		result.Details = details
		_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
		return err
	}

	details = append(details, F("Duration", duration.String()))
	result := NewSuccessResult(r.config.Title+" complete", details)
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
	return nil
}

// stepCallback prints each step line as its status changes
func (r *Runner) stepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if r.progress == nil || stepNumber < 1 || stepNumber > len(r.progress.Steps) {
			return
		}
		if name != "" {
			r.progress.Steps[stepNumber-1].Name = name
		}
		r.progress.UpdateStep(stepNumber, status, message)

		line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])
		if status == StepRunning {
			// Overwritten when the step finishes
			_, _ = fmt.Fprint(r.output, line+"\r")
			return
		}
		_, _ = fmt.Fprintln(r.output, line)
	}
}

// StepCommander reports each command sent through it as a numbered step.
// Device error replies are shown as skipped steps, since the projector
// simply does not support that query.
type StepCommander struct {
	Next   adcp.Commander
	OnStep StepCallback
	sent   int
}

// Send forwards cmd to the wrapped commander
func (s *StepCommander) Send(ctx context.Context, cmd adcp.Command) (adcp.RawLine, error) {
	s.sent++
	n := s.sent
	s.OnStep(n, "", StepRunning, cmd.Line())

	reply, err := s.Next.Send(ctx, cmd)
	switch {
	case err != nil:
		s.OnStep(n, "", StepFailed, adcp.ShortMessage(err))
	case adcp.IsDeviceErrorReply(reply):
		s.OnStep(n, "", StepSkipped, reply.Text())
	default:
		s.OnStep(n, "", StepComplete, truncate(reply.Text(), 40))
	}
	return reply, err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
