package config_test

import (
	"testing"
	"time"

	"github.com/idilsaglam/shoplist/internal/config"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := config.FromEnv(env(map[string]string{config.EnvDataDir: "/tmp/shoplist"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.APIURL != config.DefaultAPIURL {
		t.Errorf("APIURL: got %q, want %q", c.APIURL, config.DefaultAPIURL)
	}
	if !c.Remote {
		t.Errorf("Remote: got false, want true")
	}
	if c.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout: got %v, want 30s", c.RequestTimeout)
	}
	if c.MockLatency != 0 {
		t.Errorf("MockLatency: got %v, want 0", c.MockLatency)
	}
	if c.LogLevel != "warn" || c.LogFormat != "console" || c.Addr != ":8080" {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	c, err := config.FromEnv(env(map[string]string{
		config.EnvAPIURL:         "https://lists.example.com/api/v1",
		config.EnvRemote:         "false",
		config.EnvDataDir:        "/data",
		config.EnvLogLevel:       "DEBUG",
		config.EnvLogFormat:      "json",
		config.EnvRequestTimeout: "5s",
		config.EnvMockLatency:    "250ms",
		config.EnvAddr:           "127.0.0.1:9000",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Remote || c.DataDir != "/data" || c.LogLevel != "debug" || c.LogFormat != "json" {
		t.Errorf("got %+v", c)
	}
	if c.RequestTimeout != 5*time.Second || c.MockLatency != 250*time.Millisecond {
		t.Errorf("durations: got %v / %v", c.RequestTimeout, c.MockLatency)
	}
	if c.APIURL != "https://lists.example.com/api/v1" || c.Addr != "127.0.0.1:9000" {
		t.Errorf("got %+v", c)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad bool":         {config.EnvRemote: "maybe"},
		"bad duration":     {config.EnvRequestTimeout: "soon"},
		"negative latency": {config.EnvMockLatency: "-1s"},
		"bad format":       {config.EnvLogFormat: "xml"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			m[config.EnvDataDir] = "/tmp"
			if _, err := config.FromEnv(env(m)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
