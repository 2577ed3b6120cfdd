// Package config reads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvAPIURL         = "SHOPLIST_API_URL"
	EnvRemote         = "SHOPLIST_REMOTE"
	EnvDataDir        = "SHOPLIST_DATA_DIR"
	EnvLogLevel       = "SHOPLIST_LOG_LEVEL"
	EnvLogFormat      = "SHOPLIST_LOG_FORMAT"
	EnvRequestTimeout = "SHOPLIST_REQUEST_TIMEOUT"
	EnvMockLatency    = "SHOPLIST_MOCK_LATENCY"
	EnvAddr           = "SHOPLIST_ADDR"
)

// Defaults.
const (
	DefaultAPIURL         = "http://localhost:8080/api/v1"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "console"
	DefaultRequestTimeout = 30 * time.Second
	DefaultAddr           = ":8080"
)

type Config struct {
	APIURL         string
	Remote         bool
	DataDir        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	MockLatency    time.Duration
	Addr           string
}

// Load reads .env (if present) without overriding variables already set,
// then builds a Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Unset values take their defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Config{
		APIURL:         DefaultAPIURL,
		Remote:         true,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		RequestTimeout: DefaultRequestTimeout,
		Addr:           DefaultAddr,
	}
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	if v := get(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := get(EnvRemote); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRemote, err)
		}
		c.Remote = b
	}
	if v := get(EnvDataDir); v != "" {
		c.DataDir = v
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("home: %w", err)
		}
		c.DataDir = filepath.Join(home, ".shoplist")
	}
	if v := get(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := get(EnvLogFormat); v != "" {
		v = strings.ToLower(v)
		if v != "console" && v != "json" {
			return Config{}, fmt.Errorf("%s: unknown format %q", EnvLogFormat, v)
		}
		c.LogFormat = v
	}
	var err error
	if c.RequestTimeout, err = duration(get(EnvRequestTimeout), c.RequestTimeout); err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvRequestTimeout, err)
	}
	if c.MockLatency, err = duration(get(EnvMockLatency), 0); err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvMockLatency, err)
	}
	if v := get(EnvAddr); v != "" {
		c.Addr = v
	}
	return c, nil
}

func duration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", v)
	}
	return d, nil
}
