package platform

import "context"

// Radio is the wireless interface.
type Radio interface {
	// BeginJoin starts associating with a managed network and returns
	// without waiting for the link.
	BeginJoin(ctx context.Context, ssid, pass string) error
	// Joined reports whether the station link is up.
	Joined(ctx context.Context) bool
	// StartAP brings up a self-hosted network. An empty pass means open.
	StartAP(ctx context.Context, ssid, pass string) error
	// Address is the device's current IPv4 address: the station address
	// when joined, the access point address otherwise.
	Address() string
	// SignalStrength is the station RSSI in dBm, 0 when not joined.
	SignalStrength(ctx context.Context) int
}
