// Package config provides user configuration management for adcpctl.
//
// This package manages a configuration file of named projector profiles and
// application preferences, reads the ADCP_* environment (optionally seeded
// from a .env file) and layers everything into resolved Settings.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/adcpctl/config.yaml or $HOME/.config/adcpctl/config.yaml
//   - macOS: $HOME/.config/adcpctl/config.yaml
//   - Windows: %LOCALAPPDATA%\adcpctl\config.yaml
//
// A different file can be given with --config. Files ending in .toml are
// read and written as TOML; everything else is YAML.
//
// # Precedence
//
// Settings are resolved as: built-in defaults, then preferences, then the
// selected profile (--profile, ADCP_PROFILE or default_profile), then the
// environment (ADCP_HOST, ADCP_PORT, ADCP_PASSWORD, ADCP_LOG_LEVEL), and
// finally command-line flags, which the CLI applies itself.
//
// # Security
//
// IMPORTANT: This package NEVER stores projector passwords. They come from
// --password, ADCP_PASSWORD (or a .env file) or an interactive prompt, and
// are held as adcp.Secret, which never prints its value.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry("")
//	if err != nil {
//	    return err
//	}
//	env, err := config.ReadEnv()
//	if err != nil {
//	    return err
//	}
//	settings, err := config.Resolve(registry, env, "")
//
// An example YAML file:
//
//	version: 1
//	default_profile: living-room
//	profiles:
//	  living-room:
//	    host: 192.168.1.50
//	    settle_interval: 100ms
//	    retries: 3
package config
