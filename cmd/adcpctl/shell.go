package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/adcpctl/cmd/adcpctl/interactive"
	"github.com/muurk/adcpctl/internal/adcp"
)

func init() {
	rootCmd.AddCommand(shellCmd)
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive ADCP session",
	Long: `Connect once and type commands at an "adcp>" prompt.

The session stays open between commands, so the projector only sees one
connection and one authentication. Type 'help' at the prompt for the
available commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		sh, err := interactive.New(sess)
		if err != nil {
			return err
		}
		sess.OnStateChange(func(from, to adcp.State) {
			if to == adcp.StateFailed {
				fmt.Fprintf(sh.Stdout(), "Connection lost (%s -> %s): %s\n", from, to, adcp.ShortMessage(sess.Err()))
			}
		})
		sh.Run(cmd.Context())
		return nil
	},
}
