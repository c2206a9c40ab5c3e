package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
)

// Change thresholds against the last broadcast snapshot.
const (
	tempThresholdC    = 0.5
	signalThresholdDB = 2
	uptimeThreshold   = 12 * time.Second // 0.2 min

	// sampleTimeout bounds one Sample; it runs on the loop.
	sampleTimeout = 3 * time.Second
)

// StatusBroadcaster publishes telemetry when it moves and indicator changes
// as they happen. All methods run on the loop.
type StatusBroadcaster struct {
	sensors   platform.Sensors
	radio     platform.Radio
	indicator platform.Indicator
	device    *Device
	clock     platform.Clock
	bc        *Broadcaster
	log       *logger.Logger
	metrics   *metrics.Metrics

	bootedAt     time.Time
	latest       models.StatusSnapshot
	lastSent     models.StatusSnapshot
	indicatorWas bool
	// false until the first poll, which always reports
	indicatorKnown bool

	// restarting silences indicator reports while the confirm blink runs
	restarting func() bool
}

func NewStatusBroadcaster(sensors platform.Sensors, radio platform.Radio, indicator platform.Indicator,
	device *Device, clock platform.Clock, bc *Broadcaster, log *logger.Logger, m *metrics.Metrics) *StatusBroadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &StatusBroadcaster{
		sensors: sensors, radio: radio, indicator: indicator, device: device,
		clock: clock, bc: bc, log: log, metrics: m, bootedAt: clock.Now(),
	}
}

// Sample reads every source. A failing temperature sensor keeps the
// previous reading; a failing uptime source falls back to process uptime.
func (s *StatusBroadcaster) Sample(ctx context.Context) models.StatusSnapshot {
	ctx, cancel := context.WithTimeout(ctx, sampleTimeout)
	defer cancel()
	snap := models.StatusSnapshot{TakenAt: s.clock.Now(), TemperatureC: s.latest.TemperatureC}

	if t, err := s.sensors.TemperatureC(ctx); err != nil {
		s.log.Debugw("temperature_read_failed", "error", err)
	} else {
		snap.TemperatureC = t
	}

	up, err := s.sensors.Uptime(ctx)
	if err != nil {
		up = s.clock.Now().Sub(s.bootedAt)
	}
	snap.UptimeSeconds = int64(up / time.Second)

	if s.device.Joined() {
		snap.SignalDBm = s.radio.SignalStrength(ctx)
	}
	if on, err := s.indicator.On(); err == nil {
		snap.IndicatorOn = on
	}

	s.latest = snap
	return snap
}

// Latest is the most recent sample, taken by Tick or Sample.
func (s *StatusBroadcaster) Latest() models.StatusSnapshot {
	return s.latest
}

// Tick evaluates telemetry. It reports whether a line was broadcast.
// Outside joined mode it does nothing.
func (s *StatusBroadcaster) Tick(ctx context.Context) bool {
	if !s.device.Joined() {
		return false
	}
	snap := s.Sample(ctx)
	if !movedEnough(s.lastSent, snap) {
		if s.metrics != nil {
			s.metrics.StatusSkipped.Inc()
		}
		return false
	}
	s.lastSent = snap
	s.bc.Log(models.EventStatus, FormatStatusLine(snap))
	return true
}

// PollIndicator broadcasts an indicator change. The first poll always
// reports the current state. Once a restart is pending it only tracks
// the state, so the confirm blink produces no lines.
func (s *StatusBroadcaster) PollIndicator() bool {
	on, err := s.indicator.On()
	if err != nil || (s.indicatorKnown && on == s.indicatorWas) {
		return false
	}
	s.indicatorWas, s.indicatorKnown = on, true
	if s.restarting != nil && s.restarting() {
		return false
	}
	s.bc.Log(models.EventIndicator, "LED changed: "+onOff(on))
	return true
}

func movedEnough(prev, cur models.StatusSnapshot) bool {
	if math.Abs(cur.TemperatureC-prev.TemperatureC) > tempThresholdC {
		return true
	}
	d := cur.SignalDBm - prev.SignalDBm
	if d < 0 {
		d = -d
	}
	if d > signalThresholdDB {
		return true
	}
	du := time.Duration(cur.UptimeSeconds-prev.UptimeSeconds) * time.Second
	if du < 0 {
		du = -du
	}
	return du >= uptimeThreshold
}

// FormatStatusLine renders "Temp: 41.3°C | RSSI: -61 dBm | Uptime: 01:02:03".
func FormatStatusLine(s models.StatusSnapshot) string {
	return fmt.Sprintf("Temp: %.1f°C | RSSI: %d dBm | Uptime: %s",
		s.TemperatureC, s.SignalDBm, FormatUptime(time.Duration(s.UptimeSeconds)*time.Second))
}
