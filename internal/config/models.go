package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry represents the entire user configuration file.
// It stores named projector profiles and application preferences.
type Registry struct {
	Version        int                 `yaml:"version" toml:"version"`
	DefaultProfile string              `yaml:"default_profile,omitempty" toml:"default_profile,omitempty"`
	Profiles       map[string]*Profile `yaml:"profiles,omitempty" toml:"profiles,omitempty"`
	Preferences    *Preferences        `yaml:"preferences,omitempty" toml:"preferences,omitempty"`
}

// Profile describes how to reach one projector.
// Note: Passwords are NEVER stored - they come from flags, the environment or a prompt.
type Profile struct {
	Nickname        string    `yaml:"nickname,omitempty" toml:"nickname,omitempty"` // User-friendly name
	Host            string    `yaml:"host" toml:"host"`
	Port            int       `yaml:"port,omitempty" toml:"port,omitempty"`
	ConnectTimeout  Duration  `yaml:"connect_timeout,omitempty" toml:"connect_timeout,omitempty"`
	ReadTimeout     Duration  `yaml:"read_timeout,omitempty" toml:"read_timeout,omitempty"`
	WriteTimeout    Duration  `yaml:"write_timeout,omitempty" toml:"write_timeout,omitempty"`
	SettleInterval  *Duration `yaml:"settle_interval,omitempty" toml:"settle_interval,omitempty"`   // Pause between write and read; 0s disables
	CommandInterval *Duration `yaml:"command_interval,omitempty" toml:"command_interval,omitempty"` // Minimum spacing between commands; 0s disables
	Retries         int       `yaml:"retries,omitempty" toml:"retries,omitempty"`                   // Connect attempts
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	Format   string `yaml:"format,omitempty" toml:"format,omitempty"`       // detailed, compact or json
	LogLevel string `yaml:"log_level,omitempty" toml:"log_level,omitempty"` // debug, info, warn, error
}

// Duration is a time.Duration written as "250ms" or "5s" in config files.
// Bare integers are read as seconds.
type Duration time.Duration

// NewDuration returns d for an optional profile field, where nil means unset.
func NewDuration(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Profiles: make(map[string]*Profile),
		Preferences: &Preferences{
			Format: "detailed",
		},
	}
}

// Profile retrieves a profile by name. An empty name selects the default
// profile; if there is none, (nil, nil) is returned.
func (r *Registry) Profile(name string) (*Profile, error) {
	if name == "" {
		name = r.DefaultProfile
	}
	if name == "" {
		return nil, nil
	}
	p, ok := r.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrProfileNotFound, name, strings.Join(r.ProfileNames(), ", "))
	}
	return p, nil
}

// SetProfile adds or replaces a profile. The first profile added becomes
// the default.
func (r *Registry) SetProfile(name string, p *Profile) {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	r.Profiles[name] = p
	if r.DefaultProfile == "" {
		r.DefaultProfile = name
	}
}

// RemoveProfile deletes a profile, clearing the default if it pointed there.
func (r *Registry) RemoveProfile(name string) bool {
	if _, ok := r.Profiles[name]; !ok {
		return false
	}
	delete(r.Profiles, name)
	if r.DefaultProfile == name {
		r.DefaultProfile = ""
	}
	return true
}

// ProfileNames returns the profile names in sorted order.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the registry for values the CLI cannot use.
func (r *Registry) Validate() error {
	if r.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", r.Version)
	}
	for _, name := range r.ProfileNames() {
		p := r.Profiles[name]
		if p == nil {
			return fmt.Errorf("profile %q is empty", name)
		}
		if p.Host == "" {
			return fmt.Errorf("profile %q: host is required", name)
		}
		if p.Port != 0 && (p.Port < 1 || p.Port > 65535) {
			return fmt.Errorf("profile %q: port %d out of range (1-65535)", name, p.Port)
		}
		if p.Retries < 0 {
			return fmt.Errorf("profile %q: retries must not be negative", name)
		}
	}
	if r.DefaultProfile != "" {
		if _, ok := r.Profiles[r.DefaultProfile]; !ok {
			return fmt.Errorf("default profile %q does not exist", r.DefaultProfile)
		}
	}
	if r.Preferences != nil && r.Preferences.Format != "" {
		if _, err := ParseFormat(r.Preferences.Format); err != nil {
			return err
		}
	}
	return nil
}
