package service

import (
	"sync"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
)

// Device holds the boot outcome. It is written once by Boot and read from
// every goroutine afterwards.
type Device struct {
	radio platform.Radio

	mu      sync.RWMutex
	mode    models.ConnectionState
	network string
}

func NewDevice(radio platform.Radio) *Device {
	return &Device{radio: radio, mode: models.Disconnected}
}

func (d *Device) SetMode(mode models.ConnectionState, network string) {
	d.mu.Lock()
	d.mode, d.network = mode, network
	d.mu.Unlock()
}

func (d *Device) Mode() models.ConnectionState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// Network is the joined network name, empty in fallback mode.
func (d *Device) Network() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.network
}

func (d *Device) Joined() bool {
	return d.Mode() == models.JoinedSTA
}

// Address is the device's current IP as reported by the radio.
func (d *Device) Address() string {
	return d.radio.Address()
}
