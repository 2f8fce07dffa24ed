package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/adcpctl/internal/config"
	"github.com/muurk/adcpctl/internal/ui"
)

var (
	forceInit bool
	showAs    string
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configRemoveCmd)
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")
	configShowCmd.Flags().StringVar(&showAs, "as", "yaml", "Encoding for the resolved settings (yaml, toml)")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage projector profiles",
	Long: `Manage the configuration file holding named projector profiles.

Passwords are never written to the configuration file.`,
}

// configFile returns the configuration file in use
func configFile() (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.GetConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		p := ui.NewPrinter(cmd.OutOrStdout())

		path, err := configFile()
		if err != nil {
			return err
		}

		force := forceInit
		if _, err := os.Stat(path); err == nil && !force && term.IsTerminal(int(os.Stdin.Fd())) {
			if !ui.ConfirmOverwrite(os.Stdin, p.Out(), path) {
				p.PrintWarning("Configuration unchanged", []ui.Field{ui.F("File", path)})
				return nil
			}
			force = true
		}

		written, err := config.CreateDefaultConfig(path, force)
		if err != nil {
			p.PrintFailure("Configuration not written", err, []string{
				"Pass --force to overwrite the existing file",
				"Or choose another file with --config",
			})
			return err
		}

		p.PrintSuccess("Configuration written", []ui.Field{
			ui.F("File", written),
			ui.F("Profile", "living-room"),
			ui.F("Next step", "edit the host, then run 'adcpctl status'"),
		})
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved connection settings",
	Long: `Print the settings that would be used for a connection after applying
the profile, the environment and the command-line flags.

The password is never printed; only whether one is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return showSettings(cmd.OutOrStdout(), settings, registry, showAs)
	},
}

// showSettings writes the resolved settings as a single-profile registry
// in the requested encoding, preceded by a comment header.
func showSettings(w io.Writer, s config.Settings, reg *config.Registry, as string) error {
	as = strings.ToLower(as)
	if as != "yaml" && as != "toml" {
		return fmt.Errorf("unknown encoding %q (want yaml or toml)", as)
	}

	name := s.Profile
	if name == "" {
		name = "current"
	}
	view := config.NewRegistry()
	view.SetProfile(name, s.AsProfile())
	view.Preferences = &config.Preferences{Format: string(s.Format), LogLevel: s.LogLevel}

	data, err := view.Encode(as)
	if err != nil {
		return err
	}

	password := "not set"
	if !s.Secret.IsZero() {
		password = "set (not shown)"
	}
	var profiles []string
	if reg != nil {
		profiles = reg.ProfileNames()
	}

	fmt.Fprintf(w, "# password: %s\n", password)
	fmt.Fprintf(w, "# saved profiles: %s\n", orNone(strings.Join(profiles, ", ")))
	_, err = w.Write(data)
	return err
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

var configSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current settings as a profile",
	Example: `  # Save a projector under a name, then use it
  adcpctl config save den --host 10.0.0.5 --settle 200ms
  adcpctl status --profile den`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := settings.Validate(); err != nil {
			return err
		}
		path, err := configFile()
		if err != nil {
			return err
		}

		profile := settings.AsProfile()
		if existing := registry.Profiles[args[0]]; existing != nil {
			profile.Nickname = existing.Nickname
		}
		registry.SetProfile(args[0], profile)
		if err := registry.Validate(); err != nil {
			return err
		}
		if err := registry.Save(path); err != nil {
			return err
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Profile saved", []ui.Field{
			ui.F("Profile", args[0]),
			ui.F("Projector", settings.SessionConfig().Address()),
			ui.F("File", filepath.Clean(path)),
		})
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if !registry.RemoveProfile(args[0]) {
			return fmt.Errorf("%w: %s", config.ErrProfileNotFound, args[0])
		}
		path, err := configFile()
		if err != nil {
			return err
		}
		if err := registry.Save(path); err != nil {
			return errors.Join(errors.New("profile removed in memory only"), err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Profile removed", []ui.Field{ui.F("Profile", args[0])})
		return nil
	},
}
