// Package platformtest provides in-memory platform doubles for tests.
package platformtest

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"wifi_provisioner/internal/platform"
)

// Clock is a manual clock. Sleep advances it; AfterFunc callbacks fire
// synchronously from Advance/Sleep once their deadline is reached.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*timer
	slept  time.Duration
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

type timer struct {
	c       *Clock
	at      time.Time
	f       func()
	stopped bool
}

func (t *timer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.slept += d
	c.mu.Unlock()
	c.Advance(d)
}

// Slept is the total duration passed to Sleep.
func (c *Clock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}

func (c *Clock) AfterFunc(d time.Duration, f func()) platform.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &timer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due callbacks in deadline order.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		var due *timer
		for i, t := range c.timers {
			if t.stopped {
				continue
			}
			if !t.at.After(target) {
				due = t
				c.timers = append(c.timers[:i], c.timers[i+1:]...)
				break
			}
		}
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if due.at.After(c.now) {
			c.now = due.at
		}
		due.stopped = true
		c.mu.Unlock()
		due.f()
	}
}

// Restarter records restart requests instead of restarting.
type Restarter struct {
	mu      sync.Mutex
	reasons []string
}

func (r *Restarter) Restart(reason string) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
}

func (r *Restarter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

func (r *Restarter) Reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

var ErrInjected = errors.New("injected fault")

// Slot is an in-memory firmware slot. FailWriteAt makes the n-th Write
// (1-based) short; FailCommit makes Commit fail.
type Slot struct {
	FailBegin   bool
	FailWriteAt int
	FailCommit  bool

	mu        sync.Mutex
	open      bool
	writes    int
	buf       bytes.Buffer
	installed []byte
	aborted   int
}

func (s *Slot) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailBegin {
		return ErrInjected
	}
	s.open = true
	s.writes = 0
	s.buf.Reset()
	return nil
}

func (s *Slot) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, platform.ErrSlotNotOpen
	}
	s.writes++
	if s.FailWriteAt == s.writes {
		half := len(p) / 2
		s.buf.Write(p[:half])
		return half, nil
	}
	return s.buf.Write(p)
}

func (s *Slot) Commit(string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return platform.ErrSlotNotOpen
	}
	s.open = false
	if s.FailCommit {
		return ErrInjected
	}
	if s.buf.Len() == 0 {
		return platform.ErrImageEmpty
	}
	s.installed = append([]byte(nil), s.buf.Bytes()...)
	return nil
}

func (s *Slot) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.aborted++
	}
	s.open = false
	s.buf.Reset()
}

// Installed is the committed next-boot image, nil if none.
func (s *Slot) Installed() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// SetInstalled seeds a previously installed image.
func (s *Slot) SetInstalled(b []byte) {
	s.mu.Lock()
	s.installed = b
	s.mu.Unlock()
}

// Sensors returns fixed readings that tests can change between ticks.
type Sensors struct {
	mu      sync.Mutex
	Temp    float64
	Up      time.Duration
	TempErr error
}

func (s *Sensors) Set(temp float64, up time.Duration) {
	s.mu.Lock()
	s.Temp, s.Up = temp, up
	s.mu.Unlock()
}

func (s *Sensors) TemperatureC(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Temp, s.TempErr
}

func (s *Sensors) Uptime(context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Up, nil
}

// Radio is a scripted radio: it reports joined once JoinAfter polls have
// happened (0 = never joins unless Join is true).
type Radio struct {
	mu        sync.Mutex
	JoinAfter int
	Signal    int
	APErr     error
	polls     int
	joinCalls int
	apSSID    string
	apPass    string
	joined    bool
}

func (r *Radio) BeginJoin(context.Context, string, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joinCalls++
	return nil
}

func (r *Radio) Joined(context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joined {
		return true
	}
	if r.joinCalls == 0 {
		return false
	}
	r.polls++
	if r.JoinAfter > 0 && r.polls >= r.JoinAfter {
		r.joined = true
	}
	return r.joined
}

func (r *Radio) StartAP(_ context.Context, ssid, pass string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apSSID, r.apPass = ssid, pass
	return r.APErr
}

func (r *Radio) Address() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joined {
		return "10.0.0.7"
	}
	return "192.168.4.1"
}

func (r *Radio) SignalStrength(context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.joined {
		return 0
	}
	return r.Signal
}

// SetSignal changes the reported RSSI.
func (r *Radio) SetSignal(dbm int) {
	r.mu.Lock()
	r.Signal = dbm
	r.mu.Unlock()
}

func (r *Radio) JoinCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinCalls
}

func (r *Radio) AP() (ssid, pass string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apSSID, r.apPass
}

var (
	_ platform.Clock        = (*Clock)(nil)
	_ platform.Restarter    = (*Restarter)(nil)
	_ platform.FirmwareSlot = (*Slot)(nil)
	_ platform.Sensors      = (*Sensors)(nil)
	_ platform.Radio        = (*Radio)(nil)
)
