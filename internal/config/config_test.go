package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WiFi.ConnectTimeout != 15*time.Second || cfg.WiFi.PollInterval != 250*time.Millisecond {
		t.Fatalf("wifi timing defaults: %+v", cfg.WiFi)
	}
	if cfg.WiFi.APSSID != "ESP32_Setup" || cfg.WiFi.APPass != "" {
		t.Fatalf("AP defaults: %+v", cfg.WiFi)
	}
	if cfg.Control.Debounce != 300*time.Millisecond || cfg.Status.Period != 10*time.Second {
		t.Fatalf("control/status defaults: %+v %+v", cfg.Control, cfg.Status)
	}
	if cfg.HTTPPort != "80" || cfg.ControlPort != "81" {
		t.Fatalf("ports: %s %s", cfg.HTTPPort, cfg.ControlPort)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
http:
  port: "8080"
wifi:
  driver: sim
  connect_timeout: 3s
  sim:
    networks:
      - "Office:hunter2"
      - "Cafe"
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROVISIONER_CONTROL_PORT", "8081")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.ControlPort != "8081" {
		t.Fatalf("ports: %s %s", cfg.HTTPPort, cfg.ControlPort)
	}
	if cfg.WiFi.Driver != "sim" || cfg.WiFi.ConnectTimeout != 3*time.Second {
		t.Fatalf("wifi: %+v", cfg.WiFi)
	}
	if cfg.WiFi.SimNetworks["Office"] != "hunter2" || len(cfg.WiFi.SimNetworks) != 2 {
		t.Fatalf("sim networks: %v", cfg.WiFi.SimNetworks)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	base := fromViper(v)
	if err := base.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"same ports", func(c *Config) { c.ControlPort = c.HTTPPort }, "must differ"},
		{"zero timeout", func(c *Config) { c.WiFi.ConnectTimeout = 0 }, "connect_timeout"},
		{"empty ap", func(c *Config) { c.WiFi.APSSID = "" }, "ap_ssid"},
		{"bad driver", func(c *Config) { c.WiFi.Driver = "iw" }, "wifi.driver"},
		{"bad restart", func(c *Config) { c.Restart.Mode = "halt" }, "restart.mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := *base
			tc.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}
