package service

import (
	"time"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
)

// Control channel commands. Matching is exact and case-sensitive.
const (
	CommandReboot = "reboot"
	CommandLEDOn  = "led_on"
	CommandLEDOff = "led_off"
)

type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDebounced Outcome = "debounced"
	OutcomeUnknown   Outcome = "unknown"
)

type ControllerConfig struct {
	Debounce    time.Duration
	RebootDelay time.Duration
}

// Controller interprets control-channel frames. Handle runs on the loop.
type Controller struct {
	clock     platform.Clock
	indicator platform.Indicator
	hub       *Hub
	bc        *Broadcaster
	rebooter  *Rebooter
	log       *logger.Logger
	metrics   *metrics.Metrics
	cfg       ControllerConfig

	lastFrame time.Time
	seenFrame bool
}

func NewController(clock platform.Clock, indicator platform.Indicator, hub *Hub, bc *Broadcaster,
	rebooter *Rebooter, log *logger.Logger, m *metrics.Metrics, cfg ControllerConfig) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		clock: clock, indicator: indicator, hub: hub, bc: bc,
		rebooter: rebooter, log: log, metrics: m, cfg: cfg,
	}
}

// Handle processes one text frame from listener from. Frames closer than
// the debounce window to the previous accepted frame are dropped, whoever
// sent them.
func (c *Controller) Handle(from ListenerID, msg string) Outcome {
	now := c.clock.Now()
	if c.seenFrame && now.Sub(c.lastFrame) < c.cfg.Debounce {
		c.count(OutcomeDebounced)
		c.log.Debugw("command_debounced", "listener", from, "command", msg)
		return OutcomeDebounced
	}
	c.seenFrame = true
	c.lastFrame = now

	switch msg {
	case CommandReboot:
		c.bc.Log(models.EventCommand, "Command received: REBOOT")
		c.rebooter.After(c.cfg.RebootDelay, "control channel reboot")
	case CommandLEDOn, CommandLEDOff:
		on := msg == CommandLEDOn
		if err := c.indicator.Set(on); err != nil {
			c.log.Errorw("indicator_set_failed", "on", on, "error", err)
		}
		c.bc.Log(models.EventCommand, "Command received: LED "+onOff(on))
	default:
		c.hub.SendTo(from, "Unknown command: "+msg)
		c.count(OutcomeUnknown)
		return OutcomeUnknown
	}
	c.count(OutcomeAccepted)
	return OutcomeAccepted
}

func (c *Controller) count(o Outcome) {
	if c.metrics != nil {
		c.metrics.Commands.WithLabelValues(string(o)).Inc()
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
