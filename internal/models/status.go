package models

import "time"

// StatusSnapshot is one telemetry sample. Never persisted.
type StatusSnapshot struct {
	TemperatureC  float64   `json:"temperature_c"`  // °C
	SignalDBm     int       `json:"signal_dbm"`     // dBm, 0 when not joined
	UptimeSeconds int64     `json:"uptime_seconds"` // seconds since boot
	IndicatorOn   bool      `json:"indicator_on"`
	TakenAt       time.Time `json:"taken_at"`
}

// DeviceStatus is what the dashboard API reports.
type DeviceStatus struct {
	Mode     ConnectionState `json:"mode"`
	Address  string          `json:"address"`
	Network  string          `json:"network,omitempty"`
	Snapshot StatusSnapshot  `json:"snapshot"`
	OTA      OTASession      `json:"ota"`
}
