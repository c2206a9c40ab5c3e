package platform

import (
	"context"
	"sync"
	"time"
)

const (
	simStationAddr = "192.168.1.50"
	simAPAddr      = "192.168.4.1"
	simSignalDBm   = -58
)

// SimRadio emulates a radio for workstation runs and tests. Networks maps
// a reachable SSID to its passphrase; joins succeed JoinDelay after
// BeginJoin when the passphrase matches.
type SimRadio struct {
	Networks  map[string]string
	JoinDelay time.Duration
	Clock     Clock

	mu        sync.Mutex
	joinAt    time.Time
	joining   bool
	apUp      bool
	apSSID    string
	joinCalls int
}

func NewSimRadio(networks map[string]string, joinDelay time.Duration, clock Clock) *SimRadio {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SimRadio{Networks: networks, JoinDelay: joinDelay, Clock: clock}
}

func (r *SimRadio) BeginJoin(_ context.Context, ssid, pass string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joinCalls++
	want, ok := r.Networks[ssid]
	if !ok || want != pass {
		r.joining = false
		return nil // association just never completes, like a real radio
	}
	r.joining = true
	r.joinAt = r.Clock.Now().Add(r.JoinDelay)
	return nil
}

func (r *SimRadio) Joined(context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joining && !r.apUp && !r.Clock.Now().Before(r.joinAt)
}

func (r *SimRadio) StartAP(_ context.Context, ssid, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joining = false
	r.apUp = true
	r.apSSID = ssid
	return nil
}

func (r *SimRadio) Address() string {
	if r.Joined(context.Background()) {
		return simStationAddr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.apUp {
		return simAPAddr
	}
	return "0.0.0.0"
}

func (r *SimRadio) SignalStrength(ctx context.Context) int {
	if !r.Joined(ctx) {
		return 0
	}
	return simSignalDBm
}

// JoinCalls is the number of BeginJoin invocations.
func (r *SimRadio) JoinCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinCalls
}

// APSSID is the name of the access point, empty if none was started.
func (r *SimRadio) APSSID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apSSID
}
