package service

import (
	"sync/atomic"
	"time"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/platform"
)

const (
	confirmBlinks   = 3
	confirmBlinkGap = 150 * time.Millisecond
)

// Rebooter schedules the device restart. Only the first request wins;
// later ones are ignored because the device is going down anyway.
type Rebooter struct {
	clock     platform.Clock
	restarter platform.Restarter
	indicator platform.Indicator
	post      func(func())
	log       *logger.Logger

	scheduled atomic.Bool
}

// NewRebooter takes post to run indicator changes on the run loop; nil runs
// them on the timer goroutine.
func NewRebooter(clock platform.Clock, restarter platform.Restarter, indicator platform.Indicator, post func(func()), log *logger.Logger) *Rebooter {
	if log == nil {
		log = logger.Nop()
	}
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &Rebooter{clock: clock, restarter: restarter, indicator: indicator, post: post, log: log}
}

// Pending reports whether a restart has been scheduled.
func (r *Rebooter) Pending() bool {
	return r.scheduled.Load()
}

// After restarts the device once d has elapsed.
func (r *Rebooter) After(d time.Duration, reason string) {
	if !r.scheduled.CompareAndSwap(false, true) {
		return
	}
	r.log.Infow("restart_scheduled", "reason", reason, "delay", d)
	r.clock.AfterFunc(d, func() { r.restarter.Restart(reason) })
}

// BlinkThenRestart flashes the indicator three times and then restarts.
func (r *Rebooter) BlinkThenRestart(reason string) {
	if !r.scheduled.CompareAndSwap(false, true) {
		return
	}
	r.log.Infow("restart_scheduled", "reason", reason, "blinks", confirmBlinks)
	r.blink(0, reason)
}

// blink runs step i of the on/off chain on a timer, never sleeping.
func (r *Rebooter) blink(i int, reason string) {
	if i == 2*confirmBlinks {
		r.restarter.Restart(reason)
		return
	}
	on := i%2 == 0
	r.post(func() {
		if err := r.indicator.Set(on); err != nil {
			r.log.Warnw("confirm_blink_failed", "error", err)
		}
	})
	r.clock.AfterFunc(confirmBlinkGap, func() { r.blink(i+1, reason) })
}
