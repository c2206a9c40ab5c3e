// Package runloop serialises all device-state work onto one goroutine.
//
// HTTP and control-channel goroutines never touch device state themselves;
// they hand a closure to Do and wait for it to run on the loop. Periodic
// work (status evaluation, indicator polling) is driven from the same
// goroutine, so the state it mutates needs no locking. A slow job stalls
// everything else, which is the accepted trade-off on a small device.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wifi_provisioner/internal/logger"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("run loop stopped")

const jobQueueSize = 64

type job struct {
	fn   func()
	done chan struct{}
}

type periodic struct {
	every time.Duration
	fn    func(now time.Time)
}

type Loop struct {
	log       *logger.Logger
	jobs      chan job
	stopped   chan struct{}
	periodics []periodic
	iteration []func()
	onPanic   func(v any)

	startOnce sync.Once
}

func New(log *logger.Logger) *Loop {
	if log == nil {
		log = logger.Nop()
	}
	return &Loop{
		log:     log,
		jobs:    make(chan job, jobQueueSize),
		stopped: make(chan struct{}),
	}
}

// Every registers fn to run on the loop at a fixed period. Must be called
// before Run. Ticks that find the loop busy are coalesced, like time.Ticker.
func (l *Loop) Every(d time.Duration, fn func(now time.Time)) {
	l.periodics = append(l.periodics, periodic{every: d, fn: fn})
}

// OnIteration registers fn to run after every job and every tick.
// Must be called before Run.
func (l *Loop) OnIteration(fn func()) {
	l.iteration = append(l.iteration, fn)
}

// OnPanic is told about every recovered job panic.
func (l *Loop) OnPanic(fn func(v any)) {
	l.onPanic = fn
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case l.jobs <- j:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		// fn still runs; the caller just stops waiting
		return ctx.Err()
	}
}

// Post queues fn without waiting. Used from timer callbacks.
func (l *Loop) Post(fn func()) {
	select {
	case l.jobs <- job{fn: fn}:
	case <-l.stopped:
	}
}

// Run services jobs and periodic work until ctx is cancelled. It never
// returns because of a failing job.
func (l *Loop) Run(ctx context.Context) {
	started := false
	l.startOnce.Do(func() { started = true })
	if !started {
		l.log.Errorw("run_loop_already_running")
		return
	}
	defer close(l.stopped)

	ticks := make(chan periodic, len(l.periodics))
	var wg sync.WaitGroup
	tickCtx, cancelTicks := context.WithCancel(ctx)
	defer func() {
		cancelTicks()
		wg.Wait()
	}()
	for _, p := range l.periodics {
		wg.Add(1)
		go func(p periodic) {
			defer wg.Done()
			t := time.NewTicker(p.every)
			defer t.Stop()
			for {
				select {
				case <-tickCtx.Done():
					return
				case <-t.C:
					select {
					case ticks <- p:
					default: // previous tick still pending
					}
				}
			}
		}(p)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-l.jobs:
			l.run(j.fn)
			if j.done != nil {
				close(j.done)
			}
		case p := <-ticks:
			fn := p.fn
			l.run(func() { fn(time.Now()) })
		}
		for _, fn := range l.iteration {
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			l.log.Errorw("run_loop_job_panic", "panic", fmt.Sprint(v))
			if l.onPanic != nil {
				l.onPanic(v)
			}
		}
	}()
	fn()
}
