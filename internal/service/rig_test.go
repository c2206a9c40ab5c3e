package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
	"wifi_provisioner/internal/platform/platformtest"
	"wifi_provisioner/internal/repository"
)

var bootTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// memCredRepo is an in-memory repository.CredentialRepo.
type memCredRepo struct {
	mu      sync.Mutex
	saved   models.Credentials
	saves   int
	loadErr error
	saveErr error
}

func (r *memCredRepo) Save(_ context.Context, c models.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = c
	r.saves++
	return nil
}

func (r *memCredRepo) Load(context.Context) (models.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved, r.loadErr
}

type fakeAdvertiser struct {
	err     error
	calls   int
	host    string
	addr    string
	port    int
	stopped bool
}

func (a *fakeAdvertiser) Advertise(hostname, addr string, port int) (func(), error) {
	a.calls++
	a.host, a.addr, a.port = hostname, addr, port
	if a.err != nil {
		return nil, a.err
	}
	return func() { a.stopped = true }, nil
}

type rig struct {
	clock     *platformtest.Clock
	radio     *platformtest.Radio
	indicator *platform.MemoryIndicator
	sensors   *platformtest.Sensors
	slot      *platformtest.Slot
	restarter *platformtest.Restarter
	adv       *fakeAdvertiser
	creds     *memCredRepo
	events    *memEventRepo
	metrics   *metrics.Metrics
	c         *Components
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		clock:     platformtest.NewClock(bootTime),
		radio:     &platformtest.Radio{JoinAfter: 2, Signal: -60},
		indicator: &platform.MemoryIndicator{},
		sensors:   &platformtest.Sensors{Temp: 40, Up: 5 * time.Second},
		slot:      &platformtest.Slot{},
		restarter: &platformtest.Restarter{},
		adv:       &fakeAdvertiser{},
		creds:     &memCredRepo{},
		events:    &memEventRepo{},
		metrics:   metrics.New(),
	}
	r.c = NewComponents(Deps{
		Repos:      &repository.Repository{CredentialRepo: r.creds, EventRepo: r.events},
		Radio:      r.radio,
		Indicator:  r.indicator,
		Sensors:    r.sensors,
		Slot:       r.slot,
		Restarter:  r.restarter,
		Advertiser: r.adv,
		Clock:      r.clock,
		Metrics:    r.metrics,
	}, Options{
		ConnectTimeout: 15 * time.Second,
		Negotiator:     NegotiatorConfig{PollInterval: 250 * time.Millisecond, APSSID: "ESP32_Setup"},
		Controller:     ControllerConfig{Debounce: 300 * time.Millisecond, RebootDelay: 300 * time.Millisecond},
		Hostname:       "esp32",
		HTTPPort:       80,
	})
	return r
}

// join makes the fake radio report a joined link and marks the device
// joined, as a successful boot would.
func (r *rig) join(t *testing.T) {
	t.Helper()
	r.creds.saved = models.Credentials{NetworkName: "home", Secret: "pw"}
	if state, _ := r.c.Boot(context.Background()); state != models.JoinedSTA {
		t.Fatalf("boot state = %s, want JOINED_STA", state)
	}
}

// listen registers a listener and returns a function draining what it got.
func (r *rig) listen() (ListenerID, func() []string) {
	id, ch := r.c.Hub.Register()
	return id, func() []string {
		var out []string
		for {
			select {
			case line, ok := <-ch:
				if !ok {
					return out
				}
				out = append(out, line)
			default:
				return out
			}
		}
	}
}
