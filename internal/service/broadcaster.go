package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
	"wifi_provisioner/internal/repository"
)

const historyWriteTimeout = 2 * time.Second

type addresser interface {
	Address() string
}

// Broadcaster sends one line to every listener, the local log and the
// event history. Safe for concurrent use.
type Broadcaster struct {
	hub     *Hub
	addr    addresser
	events  repository.EventRepo
	clock   platform.Clock
	log     *logger.Logger
	metrics *metrics.Metrics

	historyDown atomic.Bool
}

func NewBroadcaster(hub *Hub, addr addresser, events repository.EventRepo, clock platform.Clock, log *logger.Logger, m *metrics.Metrics) *Broadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &Broadcaster{hub: hub, addr: addr, events: events, clock: clock, log: log, metrics: m}
}

// Log broadcasts msg as "[<address>] msg" and records it under typ.
func (b *Broadcaster) Log(typ, msg string) {
	line := "[" + b.addr.Address() + "] " + msg
	b.log.Infow("broadcast", "type", typ, "line", line)
	b.hub.Broadcast(line)
	if b.metrics != nil {
		b.metrics.Broadcasts.Inc()
	}
	b.record(typ, msg)
}

func (b *Broadcaster) record(typ, msg string) {
	if b.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	err := b.events.Append(ctx, models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  b.clock.Now().UTC(),
		Type:        typ,
		Description: msg,
		Metadata:    map[string]string{"address": b.addr.Address()},
	})
	if err != nil {
		// storage faults repeat on every line; report the first one only
		if !b.historyDown.Swap(true) {
			b.log.Warnw("event_history_write_failed", "error", err)
		}
		return
	}
	b.historyDown.Store(false)
}
