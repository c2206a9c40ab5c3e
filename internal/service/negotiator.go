package service

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
)

const (
	eventJoin     = "join"
	eventJoined   = "joined"
	eventFallback = "fallback"
)

// NegotiatorConfig holds the join and access-point parameters.
type NegotiatorConfig struct {
	PollInterval time.Duration
	APSSID       string
	APPass       string
}

// Negotiator decides once per boot whether the device joins a network or
// opens its setup access point.
type Negotiator struct {
	radio platform.Radio
	clock platform.Clock
	bc    *Broadcaster
	log   *logger.Logger
	cfg   NegotiatorConfig

	machine *fsm.FSM
}

func NewNegotiator(radio platform.Radio, clock platform.Clock, bc *Broadcaster, log *logger.Logger, cfg NegotiatorConfig) *Negotiator {
	if log == nil {
		log = logger.Nop()
	}
	n := &Negotiator{radio: radio, clock: clock, bc: bc, log: log, cfg: cfg}
	n.machine = fsm.NewFSM(
		string(models.Disconnected),
		fsm.Events{
			{Name: eventJoin, Src: []string{string(models.Disconnected)}, Dst: string(models.ConnectingSTA)},
			{Name: eventJoined, Src: []string{string(models.ConnectingSTA)}, Dst: string(models.JoinedSTA)},
			{Name: eventFallback, Src: []string{string(models.Disconnected), string(models.ConnectingSTA)}, Dst: string(models.FallbackAP)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				n.log.Infow("connection_state_changed", "from", e.Src, "to", e.Dst, "event", e.Event)
			},
		},
	)
	return n
}

// State is the current connection state.
func (n *Negotiator) State() models.ConnectionState {
	return models.ConnectionState(n.machine.Current())
}

// Negotiate joins creds' network or falls back to the access point. It
// never fails and returns within timeout plus one poll interval. A second
// call returns the state reached by the first.
func (n *Negotiator) Negotiate(ctx context.Context, creds models.Credentials, timeout time.Duration) models.ConnectionState {
	if n.State().Terminal() {
		return n.State()
	}
	if creds.IsEmpty() {
		n.log.Infow("no_saved_credentials")
		return n.fallback(ctx)
	}

	n.fire(ctx, eventJoin)
	n.log.Infow("joining_network", "ssid", creds.NetworkName, "timeout", timeout)
	if err := n.radio.BeginJoin(ctx, creds.NetworkName, creds.Secret); err != nil {
		n.log.Errorw("join_start_failed", "ssid", creds.NetworkName, "error", err)
		return n.fallback(ctx)
	}

	start := n.clock.Now()
	for {
		if n.joinedWithin(ctx, timeout-n.clock.Now().Sub(start)) {
			n.fire(ctx, eventJoined)
			if n.bc != nil {
				n.bc.Log(models.EventNetwork, fmt.Sprintf("Connected: SSID=%s | IP: %s", creds.NetworkName, n.radio.Address()))
			}
			return n.State()
		}
		if ctx.Err() != nil || n.clock.Now().Sub(start) >= timeout {
			n.log.Warnw("join_timed_out", "ssid", creds.NetworkName, "waited", n.clock.Now().Sub(start))
			return n.fallback(ctx)
		}
		n.clock.Sleep(n.cfg.PollInterval)
	}
}

// joinedWithin polls the radio, giving it no longer than what is left of
// the join window, and at least one poll interval.
func (n *Negotiator) joinedWithin(ctx context.Context, left time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, max(left, n.cfg.PollInterval))
	defer cancel()
	return n.radio.Joined(ctx)
}

func (n *Negotiator) fallback(ctx context.Context) models.ConnectionState {
	n.fire(ctx, eventFallback)
	// the portal must come up even when boot was cancelled
	if err := n.radio.StartAP(context.WithoutCancel(ctx), n.cfg.APSSID, n.cfg.APPass); err != nil {
		n.log.Errorw("access_point_start_failed", "ssid", n.cfg.APSSID, "error", err)
		return n.State()
	}
	if n.bc != nil {
		n.bc.Log(models.EventNetwork, fmt.Sprintf("AP started: SSID=%s | IP: %s", n.cfg.APSSID, n.radio.Address()))
	}
	return n.State()
}

func (n *Negotiator) fire(ctx context.Context, event string) {
	if err := n.machine.Event(context.WithoutCancel(ctx), event); err != nil {
		n.log.Errorw("connection_transition_rejected", "event", event, "state", n.machine.Current(), "error", err)
	}
}
