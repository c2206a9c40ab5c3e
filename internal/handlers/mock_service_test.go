package handlers

import (
	"context"
	"sync"
	"time"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform/platformtest"
	"wifi_provisioner/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

// inlineRunner runs jobs on the calling goroutine, one at a time.
type inlineRunner struct {
	mu  sync.Mutex
	err error
}

func (r *inlineRunner) Do(_ context.Context, fn func()) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
	return nil
}

type mockDevice struct {
	mode    models.ConnectionState
	address string
	network string
}

func (m *mockDevice) Mode() models.ConnectionState { return m.mode }
func (m *mockDevice) Address() string              { return m.address }
func (m *mockDevice) Network() string              { return m.network }

type mockCredentials struct {
	mu    sync.Mutex
	saved []models.Credentials
	err   error
}

func (m *mockCredentials) Load(context.Context) models.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return models.Credentials{}
	}
	return m.saved[len(m.saved)-1]
}

func (m *mockCredentials) Save(_ context.Context, c models.Credentials) error {
	if c.IsEmpty() {
		return service.ErrSSIDRequired
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.saved = append(m.saved, c)
	m.mu.Unlock()
	return nil
}

type mockRestarts struct {
	mu     sync.Mutex
	delays []time.Duration
	reason []string
	blinks []string
}

func (m *mockRestarts) After(d time.Duration, reason string) {
	m.mu.Lock()
	m.delays = append(m.delays, d)
	m.reason = append(m.reason, reason)
	m.mu.Unlock()
}

func (m *mockRestarts) BlinkThenRestart(reason string) {
	m.mu.Lock()
	m.blinks = append(m.blinks, reason)
	m.mu.Unlock()
}

func (m *mockRestarts) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reason) + len(m.blinks)
}

type mockAnnouncer struct {
	mu    sync.Mutex
	lines []string
}

func (m *mockAnnouncer) Log(typ, msg string) {
	m.mu.Lock()
	m.lines = append(m.lines, typ+" "+msg)
	m.mu.Unlock()
}

type mockTelemetry struct {
	snap models.StatusSnapshot
}

func (m *mockTelemetry) Sample(context.Context) models.StatusSnapshot { return m.snap }

// mockControl echoes every frame back to its sender through the hub.
type mockControl struct {
	hub    *service.Hub
	mu     sync.Mutex
	frames []string
}

func (m *mockControl) Handle(from service.ListenerID, msg string) service.Outcome {
	m.mu.Lock()
	m.frames = append(m.frames, msg)
	m.mu.Unlock()
	m.hub.SendTo(from, "echo: "+msg)
	return service.OutcomeAccepted
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

type testDeps struct {
	runner    *inlineRunner
	device    *mockDevice
	creds     *mockCredentials
	restarts  *mockRestarts
	announcer *mockAnnouncer
	telemetry *mockTelemetry
	control   *mockControl
	events    *mockEventLog
	hub       *service.Hub
	slot      *platformtest.Slot
	ota       *service.OTAManager
	services  *service.Service
}

func newTestDeps(mode models.ConnectionState) *testDeps {
	hub := service.NewHub(nil)
	slot := &platformtest.Slot{}
	d := &testDeps{
		runner:    &inlineRunner{},
		device:    &mockDevice{mode: mode, address: "192.168.4.1"},
		creds:     &mockCredentials{},
		restarts:  &mockRestarts{},
		announcer: &mockAnnouncer{},
		telemetry: &mockTelemetry{},
		control:   &mockControl{hub: hub},
		events:    &mockEventLog{},
		hub:       hub,
		slot:      slot,
		ota:       service.NewOTAManager(slot, nil, nil),
	}
	d.services = &service.Service{
		Credentials: d.creds,
		Firmware:    d.ota,
		Control:     d.control,
		Listeners:   d.hub,
		Announcer:   d.announcer,
		Restarts:    d.restarts,
		Telemetry:   d.telemetry,
		DeviceInfo:  d.device,
		EventLog:    d.events,
	}
	return d
}

func (d *testDeps) handler() *Handler {
	return NewHandler(d.services, d.runner, nil, Options{SaveRebootDelay: 500 * time.Millisecond, ControlPort: 81})
}

func newTestRouter(d *testDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return d.handler().InitRoutes()
}
