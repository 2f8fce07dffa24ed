package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/adcpctl/internal/adcp"
	"github.com/muurk/adcpctl/internal/config"
	"github.com/muurk/adcpctl/internal/ui"
)

var powerWait bool

func init() {
	powerCmd.Flags().BoolVar(&powerWait, "wait", false, "Poll power_status until the projector has warmed up or cooled down")
	rootCmd.AddCommand(powerCmd)
}

// powerCmd switches the projector on or off
var powerCmd = &cobra.Command{
	Use:   "power <on|off>",
	Short: "Turn the projector on or off",
	Long: `Turn the projector on or off.

The projector accepts the command at once but takes a while to warm up or
cool down. With --wait, power_status is polled until it reports "on" (or
"standby" when switching off).`,
	Example: `  adcpctl power on
  adcpctl power off --wait`,
	ValidArgs: []string{"on", "off"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := adcp.PowerOn
		if args[0] == "off" {
			c = adcp.PowerOff
		}
		if !powerWait {
			return runOne(cmd, args, "Power "+args[0], c)
		}
		return runPowerWait(cmd, c, adcp.DefaultVerifyOptions())
	},
}

type powerWaitReport struct {
	replyReport
	Settled  bool     `json:"settled"`
	Attempts int      `json:"attempts"`
	Observed []string `json:"observed,omitempty"`
}

// sendAndWait sends c and, when the projector accepts it, waits for the
// power state it leads to.
func sendAndWait(ctx context.Context, sess adcp.Commander, c adcp.Command, opts *adcp.VerifyOptions) (adcp.RawLine, *adcp.VerifyResult, error) {
	reply, err := sess.Send(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if err := adcp.ReplyError(reply); err != nil {
		return reply, nil, err
	}
	want, _ := adcp.PowerTarget(c)
	return reply, adcp.WaitForPower(ctx, sess, want, opts), nil
}

func runPowerWait(cmd *cobra.Command, c adcp.Command, opts *adcp.VerifyOptions) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	p := ui.NewPrinter(cmd.OutOrStdout())
	want, _ := adcp.PowerTarget(c)

	if settings.Format != config.FormatDetailed {
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		reply, result, err := sendAndWait(ctx, sess, c, opts)
		if result == nil {
			if reply != nil && settings.Format == config.FormatCompact {
				p.Println(reply.String())
			}
			if reply != nil && settings.Format == config.FormatJSON {
				_ = writeJSON(p.Out(), powerWaitReport{replyReport: newReplyReport(c, reply)})
			}
			return err
		}

		if settings.Format == config.FormatJSON {
			report := powerWaitReport{
				replyReport: newReplyReport(c, reply),
				Settled:     result.Success,
				Attempts:    result.Attempts,
				Observed:    result.Observed,
			}
			if err := writeJSON(p.Out(), report); err != nil {
				return err
			}
		} else {
			p.Println(reply.String())
			p.Println(result.Last())
		}
		return result.Error
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     "Power " + strings.TrimPrefix(c.Name(), "power_"),
		Command:   cmd.CommandPath() + " " + strings.TrimPrefix(c.Name(), "power_") + " --wait",
		Params:    append(connectionParams(), ui.F("Line", c.Line()), ui.F("Wait for", want)),
		StepNames: []string{"Send " + c.Line(), "Wait for " + want},
		Output:    p.Out(),
	})
	return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Field, error) {
		sess, err := openSession(ctx)
		if err != nil {
			return nil, err
		}
		defer sess.Close()

		onStep(1, "", ui.StepRunning, "")
		reply, err := sess.Send(ctx, c)
		if err != nil {
			onStep(1, "", ui.StepFailed, adcp.ShortMessage(err))
			return nil, err
		}
		if err := adcp.ReplyError(reply); err != nil {
			onStep(1, "", ui.StepFailed, reply.String())
			return []ui.Field{ui.F("Reply", reply.String())}, err
		}
		onStep(1, "", ui.StepComplete, reply.String())

		onStep(2, "", ui.StepRunning, "polling power_status")
		result := adcp.WaitForPower(ctx, sess, want, opts)
		details := []ui.Field{
			ui.F("Power status", result.Last()),
			ui.F("Polls", strconv.Itoa(result.Attempts)),
			ui.F("States seen", strings.Join(result.Observed, " → ")),
		}
		if !result.Success {
			onStep(2, "", ui.StepFailed, result.Last())
			return details, result.Error
		}
		onStep(2, "", ui.StepComplete, result.Last())
		return details, nil
	})
}
