package service

import (
	"context"
	"fmt"
	"time"

	"wifi_provisioner/internal/models"
)

// Boot loads the saved credentials and negotiates the connection. In
// joined mode it also advertises the hostname over mDNS; the returned stop
// function withdraws the advertisement and is never nil.
func (c *Components) Boot(ctx context.Context) (models.ConnectionState, func()) {
	creds := c.Credentials.Load(ctx)
	state := c.Negotiator.Negotiate(ctx, creds, c.opts.ConnectTimeout)

	network := ""
	if state == models.JoinedSTA {
		network = creds.NetworkName
	}
	c.Device.SetMode(state, network)
	if c.metrics != nil {
		for _, s := range []models.ConnectionState{models.JoinedSTA, models.FallbackAP} {
			v := 0.0
			if s == state {
				v = 1
			}
			c.metrics.BootMode.WithLabelValues(string(s)).Set(v)
		}
	}

	stop := func() {}
	if state != models.JoinedSTA || c.advertiser == nil || c.opts.Hostname == "" {
		return state, stop
	}
	s, err := c.advertiser.Advertise(c.opts.Hostname, c.Device.Address(), c.opts.HTTPPort)
	if err != nil {
		c.log.Errorw("mdns_failed", "hostname", c.opts.Hostname, "error", err)
		return state, stop
	}
	c.log.Infow("mdns_registered", "hostname", c.opts.Hostname+".local")
	return state, s
}

// AnnounceReady broadcasts the boot banner once the servers listen.
func (c *Components) AnnounceReady(uptime time.Duration) {
	what := "Server started"
	if c.Device.Mode() != models.JoinedSTA {
		what = "AP portal ready"
	}
	c.Broadcaster.Log(models.EventBoot, fmt.Sprintf("%s | IP: %s | %s", what, c.Device.Address(), FormatUptime(uptime)))
}
