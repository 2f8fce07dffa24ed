package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/adcpctl/internal/adcp"
)

// Format selects how command output is rendered.
type Format string

const (
	FormatDetailed Format = "detailed"
	FormatCompact  Format = "compact"
	FormatJSON     Format = "json"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDetailed, FormatCompact, FormatJSON:
		return f, nil
	case "":
		return FormatDetailed, nil
	}
	return "", fmt.Errorf("unknown output format %q (want detailed, compact or json)", s)
}

// Settings is the fully resolved connection configuration. Sources are
// layered defaults < profile < environment < flags.
type Settings struct {
	Profile string
	Host    string
	Port    int
	Secret  adcp.Secret

	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	SettleInterval  time.Duration
	CommandInterval time.Duration
	Retries         int

	Format   Format
	LogLevel string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Port:            adcp.DefaultPort,
		ConnectTimeout:  adcp.DefaultConnectTimeout,
		ReadTimeout:     adcp.DefaultReadTimeout,
		WriteTimeout:    adcp.DefaultWriteTimeout,
		SettleInterval:  adcp.DefaultSettleInterval,
		CommandInterval: adcp.DefaultCommandInterval,
		Retries:         adcp.DefaultMaxAttempts,
		Format:          FormatDetailed,
	}
}

// Resolve layers the registry's preferences, the selected profile and the
// environment over the defaults. profileName overrides ADCP_PROFILE and the
// registry default.
func Resolve(reg *Registry, env Env, profileName string) (Settings, error) {
	s := DefaultSettings()
	if reg == nil {
		reg = NewRegistry()
	}

	if err := s.ApplyPreferences(reg.Preferences); err != nil {
		return s, err
	}

	if profileName == "" {
		profileName = env.Profile
	}
	p, err := reg.Profile(profileName)
	if err != nil {
		return s, err
	}
	if p != nil {
		if profileName == "" {
			profileName = reg.DefaultProfile
		}
		s.ApplyProfile(profileName, p)
	}

	s.ApplyEnv(env)
	return s, nil
}

// ApplyPreferences copies the non-empty preference fields.
func (s *Settings) ApplyPreferences(p *Preferences) error {
	if p == nil {
		return nil
	}
	if p.Format != "" {
		f, err := ParseFormat(p.Format)
		if err != nil {
			return err
		}
		s.Format = f
	}
	if p.LogLevel != "" {
		s.LogLevel = p.LogLevel
	}
	return nil
}

// ApplyProfile copies the profile's set fields. The intervals may be set to
// zero.
func (s *Settings) ApplyProfile(name string, p *Profile) {
	s.Profile = name
	if p.Host != "" {
		s.Host = p.Host
	}
	if p.Port != 0 {
		s.Port = p.Port
	}
	if p.ConnectTimeout != 0 {
		s.ConnectTimeout = p.ConnectTimeout.D()
	}
	if p.ReadTimeout != 0 {
		s.ReadTimeout = p.ReadTimeout.D()
	}
	if p.WriteTimeout != 0 {
		s.WriteTimeout = p.WriteTimeout.D()
	}
	if p.SettleInterval != nil {
		s.SettleInterval = p.SettleInterval.D()
	}
	if p.CommandInterval != nil {
		s.CommandInterval = p.CommandInterval.D()
	}
	if p.Retries != 0 {
		s.Retries = p.Retries
	}
}

// ApplyEnv copies the set environment fields.
func (s *Settings) ApplyEnv(e Env) {
	if e.Host != "" {
		s.Host = e.Host
	}
	if e.Port != 0 {
		s.Port = e.Port
	}
	if e.Password != "" {
		s.Secret = adcp.NewSecret(e.Password)
	}
	if e.LogLevel != "" {
		s.LogLevel = e.LogLevel
	}
}

// SessionConfig converts the settings into a session configuration.
func (s Settings) SessionConfig() adcp.Config {
	return adcp.Config{
		Host:            s.Host,
		Port:            s.Port,
		Secret:          s.Secret,
		ConnectTimeout:  s.ConnectTimeout,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		SettleInterval:  s.SettleInterval,
		CommandInterval: s.CommandInterval,
	}
}

// RetryPolicy returns the connect retry policy for these settings.
func (s Settings) RetryPolicy() adcp.RetryPolicy {
	p := adcp.DefaultRetryPolicy()
	p.MaxAttempts = s.Retries
	return p
}

// Validate checks that the settings are usable for a connection.
func (s Settings) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("no projector host: use --host, %s or a profile (adcpctl config init)", EnvHost)
	}
	if s.Retries < 1 {
		return fmt.Errorf("retries must be at least 1")
	}
	return s.SessionConfig().Validate()
}

// AsProfile renders the settings as a profile, for display and for saving.
func (s Settings) AsProfile() *Profile {
	return &Profile{
		Host:            s.Host,
		Port:            s.Port,
		ConnectTimeout:  Duration(s.ConnectTimeout),
		ReadTimeout:     Duration(s.ReadTimeout),
		WriteTimeout:    Duration(s.WriteTimeout),
		SettleInterval:  NewDuration(s.SettleInterval),
		CommandInterval: NewDuration(s.CommandInterval),
		Retries:         s.Retries,
	}
}
