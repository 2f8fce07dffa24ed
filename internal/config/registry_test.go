package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "adcpctl") {
		t.Errorf("GetConfigDir() = %v, should contain 'adcpctl'", configDir)
	}
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if want := filepath.Join(dir, "adcpctl", "config.yaml"); configPath != want {
		t.Errorf("GetConfigPath() = %v, want %v", configPath, want)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Profiles == nil {
		t.Error("NewRegistry().Profiles should not be nil")
	}
	if reg.Preferences == nil || reg.Preferences.Format != "detailed" {
		t.Error("NewRegistry().Preferences.Format should default to detailed")
	}
}

func TestRegistrySetProfile(t *testing.T) {
	reg := NewRegistry()
	reg.SetProfile("den", &Profile{Host: "10.0.0.5"})
	reg.SetProfile("cinema", &Profile{Host: "10.0.0.6"})

	if reg.DefaultProfile != "den" {
		t.Errorf("DefaultProfile = %q, want first profile added", reg.DefaultProfile)
	}

	p, err := reg.Profile("")
	if err != nil || p.Host != "10.0.0.5" {
		t.Errorf("Profile(\"\") = %v, %v; want the default profile", p, err)
	}

	names := reg.ProfileNames()
	if len(names) != 2 || names[0] != "cinema" || names[1] != "den" {
		t.Errorf("ProfileNames() = %v, want sorted names", names)
	}

	if !reg.RemoveProfile("den") || reg.DefaultProfile != "" {
		t.Error("RemoveProfile should clear the default when it is removed")
	}
	if reg.RemoveProfile("den") {
		t.Error("RemoveProfile should report false for unknown profiles")
	}
}

func TestRegistryProfileNotFound(t *testing.T) {
	reg := NewRegistry()
	reg.SetProfile("den", &Profile{Host: "10.0.0.5"})

	_, err := reg.Profile("attic")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("Profile(attic) error = %v, want ErrProfileNotFound", err)
	}
	if !strings.Contains(err.Error(), "den") {
		t.Errorf("error should list known profiles, got %v", err)
	}

	empty := NewRegistry()
	p, err := empty.Profile("")
	if p != nil || err != nil {
		t.Errorf("Profile(\"\") on empty registry = %v, %v; want nil, nil", p, err)
	}
}

func TestRegistryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Registry)
		wantErr bool
	}{
		{"valid", func(r *Registry) {}, false},
		{"bad version", func(r *Registry) { r.Version = 2 }, true},
		{"missing host", func(r *Registry) { r.Profiles["den"].Host = "" }, true},
		{"bad port", func(r *Registry) { r.Profiles["den"].Port = 99999 }, true},
		{"negative retries", func(r *Registry) { r.Profiles["den"].Retries = -1 }, true},
		{"dangling default", func(r *Registry) { r.DefaultProfile = "attic" }, true},
		{"bad format", func(r *Registry) { r.Preferences.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.SetProfile("den", &Profile{Host: "10.0.0.5"})
			tt.mutate(reg)

			err := reg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func sampleRegistry() *Registry {
	reg := NewRegistry()
	reg.SetProfile("living-room", &Profile{
		Nickname:        "Living room",
		Host:            "192.168.1.50",
		Port:            53595,
		ReadTimeout:     Duration(3 * time.Second),
		SettleInterval:  NewDuration(150 * time.Millisecond),
		CommandInterval: NewDuration(time.Second),
		Retries:         4,
	})
	reg.Preferences.LogLevel = "warn"
	return reg
}

func TestRegistrySaveLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			if err := sampleRegistry().Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
				t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("temporary file should not remain after save")
			}

			loaded, err := LoadRegistry(path)
			if err != nil {
				t.Fatalf("LoadRegistry() error = %v", err)
			}

			p, err := loaded.Profile("")
			if err != nil {
				t.Fatalf("Profile() error = %v", err)
			}
			if p.Host != "192.168.1.50" || p.Retries != 4 {
				t.Errorf("loaded profile = %+v", p)
			}
			if p.SettleInterval.D() != 150*time.Millisecond {
				t.Errorf("SettleInterval = %v, want 150ms", p.SettleInterval)
			}
			if p.CommandInterval.D() != time.Second {
				t.Errorf("CommandInterval = %v, want 1s", p.CommandInterval)
			}
			if loaded.Preferences.LogLevel != "warn" {
				t.Errorf("LogLevel = %q, want warn", loaded.Preferences.LogLevel)
			}
		})
	}
}

func TestLoadRegistryHandWrittenFiles(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "a.yaml")
	yamlData := "version: 1\ndefault_profile: den\nprofiles:\n  den:\n    host: 10.0.0.5\n    settle_interval: 250ms\n    read_timeout: 2\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0600); err != nil {
		t.Fatal(err)
	}

	tomlPath := filepath.Join(dir, "b.toml")
	tomlData := "version = 1\ndefault_profile = \"den\"\n\n[profiles.den]\nhost = \"10.0.0.5\"\nsettle_interval = \"250ms\"\nread_timeout = 2\n"
	if err := os.WriteFile(tomlPath, []byte(tomlData), 0600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, tomlPath} {
		reg, err := LoadRegistry(path)
		if err != nil {
			t.Fatalf("LoadRegistry(%s) error = %v", path, err)
		}
		p := reg.Profiles["den"]
		if p == nil {
			t.Fatalf("%s: profile den missing", path)
		}
		if p.SettleInterval.D() != 250*time.Millisecond {
			t.Errorf("%s: SettleInterval = %v, want 250ms", path, p.SettleInterval)
		}
		if p.ReadTimeout.D() != 2*time.Second {
			t.Errorf("%s: ReadTimeout = %v, want 2s", path, p.ReadTimeout)
		}
		if reg.Preferences == nil {
			t.Errorf("%s: Preferences should be filled in", path)
		}
	}
}

func TestLoadRegistryZeroIntervals(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "a.yaml")
	yamlData := "version: 1\ndefault_profile: fast\nprofiles:\n  fast:\n    host: 10.0.0.5\n    settle_interval: 0s\n    command_interval: 0s\n  plain:\n    host: 10.0.0.6\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0600); err != nil {
		t.Fatal(err)
	}

	tomlPath := filepath.Join(dir, "b.toml")
	tomlData := "version = 1\ndefault_profile = \"fast\"\n\n[profiles.fast]\nhost = \"10.0.0.5\"\nsettle_interval = \"0s\"\ncommand_interval = \"0s\"\n\n[profiles.plain]\nhost = \"10.0.0.6\"\n"
	if err := os.WriteFile(tomlPath, []byte(tomlData), 0600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, tomlPath} {
		reg, err := LoadRegistry(path)
		if err != nil {
			t.Fatalf("LoadRegistry(%s) error = %v", path, err)
		}

		s, err := Resolve(reg, Env{}, "fast")
		if err != nil {
			t.Fatalf("%s: Resolve() error = %v", path, err)
		}
		if s.SettleInterval != 0 || s.CommandInterval != 0 {
			t.Errorf("%s: intervals = %v/%v, want 0/0", path, s.SettleInterval, s.CommandInterval)
		}

		s, err = Resolve(reg, Env{}, "plain")
		if err != nil {
			t.Fatalf("%s: Resolve() error = %v", path, err)
		}
		if s.SettleInterval != DefaultSettings().SettleInterval {
			t.Errorf("%s: unset SettleInterval = %v, want default", path, s.SettleInterval)
		}

		// A zero interval survives a save.
		out := filepath.Join(dir, "saved-"+filepath.Base(path))
		if err := reg.Save(out); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		saved, err := LoadRegistry(out)
		if err != nil {
			t.Fatalf("LoadRegistry(%s) error = %v", out, err)
		}
		if p := saved.Profiles["fast"]; p.SettleInterval == nil || p.SettleInterval.D() != 0 {
			t.Errorf("%s: saved SettleInterval = %v, want 0s", out, p.SettleInterval)
		}
	}
}

func TestLoadRegistryMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if runtime.GOOS == "linux" {
		reg, err := LoadRegistry("")
		if err != nil {
			t.Fatalf("LoadRegistry(\"\") error = %v", err)
		}
		if len(reg.Profiles) != 0 {
			t.Error("missing default config should yield an empty registry")
		}
	}

	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing explicit config should be an error")
	}
}

func TestLoadRegistryInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nprofiles:\n  den:\n    settle_interval: soon\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	got, err := CreateDefaultConfig(path, false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if got != path {
		t.Errorf("CreateDefaultConfig() path = %v, want %v", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "NEVER stored") {
		t.Error("config header should carry the password note")
	}
	if strings.Contains(strings.ToLower(string(data)), "password:") {
		t.Error("config must not contain a password key")
	}

	if _, err := CreateDefaultConfig(path, false); err == nil {
		t.Error("expected refusal to overwrite without force")
	}
	if _, err := CreateDefaultConfig(path, true); err != nil {
		t.Errorf("CreateDefaultConfig(force) error = %v", err)
	}
}

func TestDurationText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"100ms", 100 * time.Millisecond, false},
		{"5", 5 * time.Second, false},
		{"", 0, false},
		{"1m30s", 90 * time.Second, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && d.D() != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, d.D(), tt.want)
		}
	}
}
