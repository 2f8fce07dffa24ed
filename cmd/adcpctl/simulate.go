package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/adcpctl/internal/adcp"
	"github.com/muurk/adcpctl/internal/logging"
	"github.com/muurk/adcpctl/internal/simulator"
)

var simFlags struct {
	listenHost string
	port       int
	password   string
	model      string
	serial     string
	extROM     string
	delay      time.Duration
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simFlags.listenHost, "listen-host", "127.0.0.1", "Address to listen on")
	f.IntVar(&simFlags.port, "listen-port", adcp.DefaultPort, "Port to listen on")
	f.StringVar(&simFlags.password, "device-password", "", "Require this password (empty greets with NOKEY)")
	f.StringVar(&simFlags.model, "model", simulator.DefaultModel, "Reported model name")
	f.StringVar(&simFlags.serial, "serial", simulator.DefaultSerial, "Reported serial number")
	f.StringVar(&simFlags.extROM, "ext-rom", "", "Reported external ROM version (omitted when empty)")
	f.DurationVar(&simFlags.delay, "delay", 0, "Delay before every line the simulator sends")

	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated ADCP projector",
	Long: `Listen for ADCP connections and answer like a projector.

The simulator keeps power and input state across connections and supports
the built-in command catalog. It runs until interrupted.`,
	Example: `  # Simulator with authentication, then talk to it
  adcpctl simulate --device-password secret &
  adcpctl status --host 127.0.0.1 --password secret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		// The simulator is a server; show its activity unless a level was chosen.
		if settings.LogLevel == "" {
			if err := logging.Initialize("info"); err != nil {
				return err
			}
		}

		srv := simulator.New(simulator.Config{
			Host:       simFlags.listenHost,
			Port:       simFlags.port,
			Password:   simFlags.password,
			Model:      simFlags.model,
			Serial:     simFlags.serial,
			ExtROM:     simFlags.extROM,
			ReplyDelay: simFlags.delay,
			Logger:     logging.GetLogger(),
		})
		if err := srv.Listen(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Simulating %s (serial %s) on %s. Press Ctrl+C to stop.\n",
			simFlags.model, simFlags.serial, srv.Addr())
		return srv.Serve(cmd.Context())
	},
}
