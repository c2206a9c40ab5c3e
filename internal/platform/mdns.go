package platform

import (
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"
)

const (
	mdnsService = "_http._tcp"
	mdnsDomain  = "local."
)

// Advertiser publishes the device name on the local network.
type Advertiser interface {
	Advertise(hostname, addr string, port int) (stop func(), err error)
}

// ZeroconfAdvertiser announces <hostname>.local with an HTTP service record.
type ZeroconfAdvertiser struct{}

func (ZeroconfAdvertiser) Advertise(hostname, addr string, port int) (func(), error) {
	if net.ParseIP(addr) == nil {
		return nil, fmt.Errorf("advertise %s: invalid address %q", hostname, addr)
	}
	srv, err := zeroconf.RegisterProxy(
		hostname, mdnsService, mdnsDomain, port,
		hostname, []string{addr},
		[]string{"path=/"}, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("advertise %s: %w", hostname, err)
	}
	return srv.Shutdown, nil
}
