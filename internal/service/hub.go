package service

import (
	"sync"

	"wifi_provisioner/internal/metrics"
)

// ListenerID is the opaque handle of one control-channel connection.
type ListenerID uint32

const listenerBuffer = 32

// Hub is the registry of connected control-channel listeners.
// Delivery is best effort: a listener whose buffer is full misses the line.
type Hub struct {
	mu        sync.Mutex
	next      ListenerID
	listeners map[ListenerID]chan string
	metrics   *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{listeners: make(map[ListenerID]chan string), metrics: m}
}

// Register adds a listener. The returned channel is closed by Unregister.
func (h *Hub) Register() (ListenerID, <-chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan string, listenerBuffer)
	h.listeners[id] = ch
	h.setGauge()
	return id, ch
}

func (h *Hub) Unregister(id ListenerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.listeners[id]
	if !ok {
		return
	}
	delete(h.listeners, id)
	close(ch)
	h.setGauge()
}

// Broadcast delivers line to every listener without blocking.
func (h *Hub) Broadcast(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners {
		select {
		case ch <- line:
		default:
		}
	}
}

// SendTo delivers line to one listener. It reports false if the listener
// is gone or too slow.
func (h *Hub) SendTo(id ListenerID, line string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.listeners[id]
	if !ok {
		return false
	}
	select {
	case ch <- line:
		return true
	default:
		return false
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

func (h *Hub) setGauge() {
	if h.metrics != nil {
		h.metrics.Listeners.Set(float64(len(h.listeners)))
	}
}
