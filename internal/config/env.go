package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/muurk/adcpctl/internal/logging"
)

// Environment variables read by the CLI.
const (
	EnvHost     = "ADCP_HOST"
	EnvPort     = "ADCP_PORT"
	EnvPassword = "ADCP_PASSWORD"
	EnvProfile  = "ADCP_PROFILE"
	EnvLogLevel = logging.LogLevelEnvVar
)

// Env holds the ADCP_* environment. Empty fields were not set.
type Env struct {
	Host     string
	Port     int
	Password string
	Profile  string
	LogLevel string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables that are already
// set are left alone.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ReadEnv reads the ADCP_* variables.
func ReadEnv() (Env, error) {
	env := Env{
		Host:     strings.TrimSpace(os.Getenv(EnvHost)),
		Password: os.Getenv(EnvPassword),
		Profile:  strings.TrimSpace(os.Getenv(EnvProfile)),
		LogLevel: strings.TrimSpace(os.Getenv(EnvLogLevel)),
	}
	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return env, fmt.Errorf("%s=%q is not a valid port", EnvPort, raw)
		}
		env.Port = port
	}
	return env, nil
}
