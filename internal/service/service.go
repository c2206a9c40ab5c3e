package service

import (
	"context"
	"time"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
	"wifi_provisioner/internal/repository"
)

// Credentials loads and replaces the saved network credentials.
type Credentials interface {
	Load(ctx context.Context) models.Credentials
	Save(ctx context.Context, c models.Credentials) error
}

// Firmware is the OTA session. Call on the run loop.
type Firmware interface {
	Dispatch(ev OTAEvent) (models.OTAPhase, error)
	Session() models.OTASession
}

// Control interprets control-channel frames. Call on the run loop.
type Control interface {
	Handle(from ListenerID, msg string) Outcome
}

// Listeners is the control-channel registry.
type Listeners interface {
	Register() (ListenerID, <-chan string)
	Unregister(id ListenerID)
}

// Announcer broadcasts a line to listeners, the log and the history.
type Announcer interface {
	Log(typ, msg string)
}

// Restarts schedules the device restart.
type Restarts interface {
	After(d time.Duration, reason string)
	BlinkThenRestart(reason string)
}

// Telemetry exposes the last status sample. Call on the run loop.
type Telemetry interface {
	Sample(ctx context.Context) models.StatusSnapshot
}

// DeviceInfo reports the boot outcome.
type DeviceInfo interface {
	Mode() models.ConnectionState
	Network() string
	Address() string
}

// EventLog exposes the broadcast history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Service is what the HTTP and control-channel handlers depend on.
type Service struct {
	Credentials
	Firmware
	Control
	Listeners
	Announcer
	Restarts
	Telemetry
	DeviceInfo
	EventLog
}

// Deps are the collaborators of one device.
type Deps struct {
	Repos      *repository.Repository
	Radio      platform.Radio
	Indicator  platform.Indicator
	Sensors    platform.Sensors
	Slot       platform.FirmwareSlot
	Restarter  platform.Restarter
	Advertiser platform.Advertiser // nil disables mDNS
	Clock      platform.Clock
	Metrics    *metrics.Metrics
	Log        *logger.Logger
	Post       func(func()) // runs a function on the loop
}

type Options struct {
	ConnectTimeout time.Duration
	Negotiator     NegotiatorConfig
	Controller     ControllerConfig
	Hostname       string
	HTTPPort       int
}

// Components are the concrete device parts, kept for wiring the loop and
// boot sequence.
type Components struct {
	Device      *Device
	Hub         *Hub
	Broadcaster *Broadcaster
	Credentials *CredentialService
	Negotiator  *Negotiator
	OTA         *OTAManager
	Controller  *Controller
	Status      *StatusBroadcaster
	Rebooter    *Rebooter
	EventLog    *EventLogService

	advertiser platform.Advertiser
	metrics    *metrics.Metrics
	log        *logger.Logger
	opts       Options
}

func NewComponents(d Deps, o Options) *Components {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = platform.SystemClock{}
	}
	device := NewDevice(d.Radio)
	hub := NewHub(d.Metrics)
	bc := NewBroadcaster(hub, device, d.Repos.EventRepo, d.Clock, d.Log, d.Metrics)
	rebooter := NewRebooter(d.Clock, d.Restarter, d.Indicator, d.Post, d.Log)
	status := NewStatusBroadcaster(d.Sensors, d.Radio, d.Indicator, device, d.Clock, bc, d.Log, d.Metrics)
	status.restarting = rebooter.Pending
	return &Components{
		Device:      device,
		Hub:         hub,
		Broadcaster: bc,
		Credentials: NewCredentialService(d.Repos.CredentialRepo, d.Log),
		Negotiator:  NewNegotiator(d.Radio, d.Clock, bc, d.Log, o.Negotiator),
		OTA:         NewOTAManager(d.Slot, d.Log, d.Metrics),
		Controller:  NewController(d.Clock, d.Indicator, hub, bc, rebooter, d.Log, d.Metrics, o.Controller),
		Status:      status,
		Rebooter:    rebooter,
		EventLog:    NewEventLogService(d.Repos.EventRepo),
		advertiser:  d.Advertiser,
		metrics:     d.Metrics,
		log:         d.Log,
		opts:        o,
	}
}

// Service exposes the components to the handlers.
func (c *Components) Service() *Service {
	return &Service{
		Credentials: c.Credentials,
		Firmware:    c.OTA,
		Control:     c.Controller,
		Listeners:   c.Hub,
		Announcer:   c.Broadcaster,
		Restarts:    c.Rebooter,
		Telemetry:   c.Status,
		DeviceInfo:  c.Device,
		EventLog:    c.EventLog,
	}
}
