package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/adcpctl/internal/adcp"
	"github.com/muurk/adcpctl/internal/config"
	"github.com/muurk/adcpctl/internal/logging"
	"github.com/muurk/adcpctl/internal/ui"
)

// rootFlags holds the persistent flags. They only override the resolved
// settings when given on the command line.
type rootFlags struct {
	host        string
	port        int
	password    string
	askPassword bool
	profile     string
	configPath  string
	timeout     time.Duration
	settle      time.Duration
	interval    time.Duration
	retries     int
	format      string
	logLevel    string
}

var (
	flags rootFlags

	// settings is resolved before every command runs
	settings config.Settings
	registry *config.Registry
)

func init() {
	d := config.DefaultSettings()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.host, "host", "", "Projector hostname or IP address")
	pf.IntVar(&flags.port, "port", d.Port, "Projector ADCP port")
	pf.StringVar(&flags.password, "password", "", "ADCP password (prefer ADCP_PASSWORD or --ask-password)")
	pf.BoolVar(&flags.askPassword, "ask-password", false, "Prompt for the ADCP password without echo")
	pf.StringVar(&flags.profile, "profile", "", "Profile from the configuration file")
	pf.StringVar(&flags.configPath, "config", "", "Configuration file (default: platform config dir)")
	pf.DurationVar(&flags.timeout, "timeout", d.ReadTimeout, "Connect, read and write timeout")
	pf.DurationVar(&flags.settle, "settle", d.SettleInterval, "Pause between sending a line and reading the reply")
	pf.DurationVar(&flags.interval, "interval", d.CommandInterval, "Minimum spacing between commands")
	pf.IntVar(&flags.retries, "retries", d.Retries, "Connect attempts before giving up")
	pf.StringVar(&flags.format, "format", string(d.Format), "Output format (detailed, compact, json)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); logs go to stderr")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		s, reg, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		settings, registry = s, reg
		return logging.Initialize(s.LogLevel)
	}
}

// resolveSettings layers defaults, the config file, the environment and
// finally the flags that were set explicitly.
func resolveSettings(cmd *cobra.Command) (config.Settings, *config.Registry, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return config.Settings{}, nil, err
	}

	reg, err := config.LoadRegistry(flags.configPath)
	if err != nil {
		return config.Settings{}, nil, err
	}

	env, err := config.ReadEnv()
	if err != nil {
		return config.Settings{}, nil, err
	}

	s, err := config.Resolve(reg, env, flags.profile)
	if err != nil {
		return s, nil, err
	}

	if err := applyFlags(&s, cmd.Flags().Changed, flags); err != nil {
		return s, nil, err
	}
	return s, reg, nil
}

// applyFlags copies the flags for which changed reports true.
func applyFlags(s *config.Settings, changed func(name string) bool, f rootFlags) error {
	if changed("host") {
		s.Host = f.host
	}
	if changed("port") {
		s.Port = f.port
	}
	if changed("password") {
		s.Secret = adcp.NewSecret(f.password)
	}
	if changed("timeout") {
		if f.timeout <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		s.ConnectTimeout = f.timeout
		s.ReadTimeout = f.timeout
		s.WriteTimeout = f.timeout
	}
	if changed("settle") {
		s.SettleInterval = f.settle
	}
	if changed("interval") {
		s.CommandInterval = f.interval
	}
	if changed("retries") {
		s.Retries = f.retries
	}
	if changed("format") {
		format, err := config.ParseFormat(f.format)
		if err != nil {
			return err
		}
		s.Format = format
	}
	if changed("log-level") {
		s.LogLevel = f.logLevel
	}
	return nil
}

// promptPassword reads the password from the terminal without echo.
func promptPassword() (adcp.Secret, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return adcp.Secret{}, fmt.Errorf("--ask-password needs an interactive terminal; use %s instead", config.EnvPassword)
	}
	fmt.Fprint(os.Stderr, "Projector password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return adcp.Secret{}, fmt.Errorf("failed to read password: %w", err)
	}
	secret := adcp.NewSecret(string(b))
	clear(b)
	return secret, nil
}

// openSession validates the settings, connects with retries and returns a
// Ready session. The caller closes it.
func openSession(ctx context.Context) (*adcp.Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if flags.askPassword && settings.Secret.IsZero() {
		secret, err := promptPassword()
		if err != nil {
			return nil, err
		}
		settings.Secret = secret
	}

	sess := adcp.NewSession(settings.SessionConfig())
	if err := adcp.ConnectWithRetry(ctx, sess, settings.RetryPolicy()); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}

// connectionParams describes the target for command headers.
func connectionParams() []ui.Field {
	params := []ui.Field{ui.F("Projector", settings.SessionConfig().Address())}
	if settings.Profile != "" {
		params = append(params, ui.F("Profile", settings.Profile))
	}
	auth := "none (NOKEY only)"
	if !settings.Secret.IsZero() || flags.askPassword {
		auth = "password set"
	}
	return append(params, ui.F("Auth", auth))
}
