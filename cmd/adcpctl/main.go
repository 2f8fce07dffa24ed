// Adcpctl controls projectors over the ADCP TCP protocol.
//
// It connects to the projector's ADCP port (53595 by default), answers the
// optional SHA-256 challenge with the configured password, and sends
// queries and commands one at a time.
//
// Usage:
//
//	adcpctl [command] [flags]
//
// Connection settings come from flags, ADCP_* environment variables (a .env
// file in the working directory is loaded too) or a named profile in the
// configuration file. See 'adcpctl --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/adcpctl/internal/config"
	"github.com/muurk/adcpctl/internal/logging"
	"github.com/muurk/adcpctl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// teardown zeroes the password held for the run and flushes the logger.
func teardown() {
	settings.Secret.Wipe()
	logging.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "adcpctl",
	Short: "Projector control over ADCP",
	Long: `A command-line client for projectors that speak ADCP, the line-based
TCP control protocol on port 53595.

Connects, authenticates when the projector asks for a password, then
sends one command at a time and prints the reply.

The projector is selected with --host, the ADCP_HOST environment variable
or a profile in the configuration file (see 'adcpctl config init').`,
	Version: version.Version,
	Example: `  # Read the projector status
  adcpctl status --host 192.168.1.50

  # Turn the projector on, password from the environment
  ADCP_PASSWORD=Projector1 adcpctl power on --host 192.168.1.50

  # Use a saved profile
  adcpctl status --profile living-room

  # Try the tool without a projector
  adcpctl simulate --listen-port 53595 &
  adcpctl status --host 127.0.0.1`,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if settings.Format == config.FormatJSON {
			return writeJSON(out, version.Get())
		}
		_, err := fmt.Fprintf(out, "adcpctl %s\n", version.Full())
		return err
	},
}
