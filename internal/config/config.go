// Package config loads the agent configuration with viper: defaults, then
// configs/config.yml, then PROVISIONER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PROVISIONER"

type Config struct {
	LogLevel string

	HTTPPort    string
	ControlPort string
	DBPath      string

	WiFi      WiFi
	Control   Control
	Status    Status
	OTA       OTA
	Indicator Indicator
	Restart   Restart
	MDNS      MDNS

	SaveRebootDelay time.Duration
}

type WiFi struct {
	Driver         string // nmcli | sim
	Interface      string
	ConnectTimeout time.Duration
	PollInterval   time.Duration
	APSSID         string
	APPass         string

	SimNetworks  map[string]string
	SimJoinDelay time.Duration
}

type Control struct {
	Debounce    time.Duration
	RebootDelay time.Duration
}

type Status struct {
	Period        time.Duration
	IndicatorPoll time.Duration
}

type OTA struct {
	SlotDir string
}

type Indicator struct {
	Driver    string // sysfs | memory
	LED       string
	ActiveLow bool
}

type Restart struct {
	Mode string // exit | reboot
}

type MDNS struct {
	Enabled  bool
	Hostname string
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("http.port", "80")
	v.SetDefault("control.port", "81")
	v.SetDefault("db.path", "provisioner.db")

	v.SetDefault("wifi.driver", "nmcli")
	v.SetDefault("wifi.interface", "wlan0")
	v.SetDefault("wifi.connect_timeout", 15*time.Second)
	v.SetDefault("wifi.poll_interval", 250*time.Millisecond)
	v.SetDefault("wifi.ap_ssid", "ESP32_Setup")
	v.SetDefault("wifi.ap_pass", "")
	v.SetDefault("wifi.sim.networks", []string{})
	v.SetDefault("wifi.sim.join_delay", 2*time.Second)

	v.SetDefault("control.debounce", 300*time.Millisecond)
	v.SetDefault("control.reboot_delay", 300*time.Millisecond)
	v.SetDefault("status.period", 10*time.Second)
	v.SetDefault("status.indicator_poll", 50*time.Millisecond)
	v.SetDefault("save.reboot_delay", 500*time.Millisecond)

	v.SetDefault("ota.slot_dir", "firmware")

	v.SetDefault("indicator.driver", "sysfs")
	v.SetDefault("indicator.led", "led0")
	v.SetDefault("indicator.active_low", true)

	v.SetDefault("restart.mode", "exit")

	v.SetDefault("mdns.enabled", true)
	v.SetDefault("mdns.hostname", "esp32")
}

// Load reads configuration. An explicit path must exist; otherwise
// configs/config.yml and /etc/wifi-provisioner/config.yml are optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath("/etc/wifi-provisioner")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		LogLevel:    v.GetString("log.level"),
		HTTPPort:    v.GetString("http.port"),
		ControlPort: v.GetString("control.port"),
		DBPath:      v.GetString("db.path"),
		WiFi: WiFi{
			Driver:         v.GetString("wifi.driver"),
			Interface:      v.GetString("wifi.interface"),
			ConnectTimeout: v.GetDuration("wifi.connect_timeout"),
			PollInterval:   v.GetDuration("wifi.poll_interval"),
			APSSID:         v.GetString("wifi.ap_ssid"),
			APPass:         v.GetString("wifi.ap_pass"),
			SimNetworks:    parseNetworks(v.GetStringSlice("wifi.sim.networks")),
			SimJoinDelay:   v.GetDuration("wifi.sim.join_delay"),
		},
		Control: Control{
			Debounce:    v.GetDuration("control.debounce"),
			RebootDelay: v.GetDuration("control.reboot_delay"),
		},
		Status: Status{
			Period:        v.GetDuration("status.period"),
			IndicatorPoll: v.GetDuration("status.indicator_poll"),
		},
		OTA: OTA{SlotDir: v.GetString("ota.slot_dir")},
		Indicator: Indicator{
			Driver:    v.GetString("indicator.driver"),
			LED:       v.GetString("indicator.led"),
			ActiveLow: v.GetBool("indicator.active_low"),
		},
		Restart:         Restart{Mode: v.GetString("restart.mode")},
		MDNS:            MDNS{Enabled: v.GetBool("mdns.enabled"), Hostname: v.GetString("mdns.hostname")},
		SaveRebootDelay: v.GetDuration("save.reboot_delay"),
	}
}

// parseNetworks turns "ssid:pass" entries into a map. Kept as a list so
// SSIDs keep their case; viper lower-cases map keys.
func parseNetworks(entries []string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		ssid, pass, _ := strings.Cut(e, ":")
		if ssid != "" {
			out[ssid] = pass
		}
	}
	return out
}

// Validate rejects settings the boot sequence cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == c.ControlPort {
		errs = append(errs, fmt.Errorf("http.port and control.port must differ (both %s)", c.HTTPPort))
	}
	if c.WiFi.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("wifi.connect_timeout must be positive"))
	}
	if c.WiFi.PollInterval <= 0 {
		errs = append(errs, errors.New("wifi.poll_interval must be positive"))
	}
	if c.WiFi.APSSID == "" {
		errs = append(errs, errors.New("wifi.ap_ssid must not be empty"))
	}
	if c.Status.Period <= 0 || c.Status.IndicatorPoll <= 0 {
		errs = append(errs, errors.New("status.period and status.indicator_poll must be positive"))
	}
	switch c.WiFi.Driver {
	case "nmcli", "sim":
	default:
		errs = append(errs, fmt.Errorf("wifi.driver %q: want nmcli or sim", c.WiFi.Driver))
	}
	switch c.Indicator.Driver {
	case "sysfs", "memory":
	default:
		errs = append(errs, fmt.Errorf("indicator.driver %q: want sysfs or memory", c.Indicator.Driver))
	}
	switch c.Restart.Mode {
	case "exit", "reboot":
	default:
		errs = append(errs, fmt.Errorf("restart.mode %q: want exit or reboot", c.Restart.Mode))
	}
	return errors.Join(errs...)
}
