package platform

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// defaultSensorTimeout bounds one gopsutil read.
const defaultSensorTimeout = 2 * time.Second

var errNoTemperatureSensor = errors.New("no temperature sensor found")

// Sensors samples the on-board telemetry.
type Sensors interface {
	TemperatureC(ctx context.Context) (float64, error)
	Uptime(ctx context.Context) (time.Duration, error)
}

// preferredSensorKeys are matched in order against gopsutil sensor keys;
// the SoC/CPU die is the closest thing to the chip's internal sensor.
var preferredSensorKeys = []string{"cpu_thermal", "soc", "coretemp", "k10temp", "cpu"}

// HostSensors reads the SoC temperature and system uptime through gopsutil.
type HostSensors struct {
	// Timeout bounds each read; zero selects the default.
	Timeout time.Duration

	temperatures func(ctx context.Context) ([]host.TemperatureStat, error)
	uptime       func(ctx context.Context) (uint64, error)
}

func NewHostSensors() *HostSensors {
	return &HostSensors{
		temperatures: host.SensorsTemperaturesWithContext,
		uptime:       host.UptimeWithContext,
	}
}

func (s *HostSensors) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	d := s.Timeout
	if d <= 0 {
		d = defaultSensorTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (s *HostSensors) TemperatureC(ctx context.Context) (float64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	stats, err := s.temperatures(ctx)
	// gopsutil returns partial readings together with a warnings error
	if len(stats) == 0 {
		if err == nil {
			err = errNoTemperatureSensor
		}
		return 0, err
	}
	return pickTemperature(stats), nil
}

func (s *HostSensors) Uptime(ctx context.Context) (time.Duration, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	secs, err := s.uptime(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

func pickTemperature(stats []host.TemperatureStat) float64 {
	for _, want := range preferredSensorKeys {
		for _, st := range stats {
			if strings.Contains(strings.ToLower(st.SensorKey), want) {
				return st.Temperature
			}
		}
	}
	return stats[0].Temperature
}
