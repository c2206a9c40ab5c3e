package service

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"wifi_provisioner/internal/metrics"
)

func TestHub_BroadcastAndSendTo(t *testing.T) {
	m := metrics.New()
	h := NewHub(m)
	a, chA := h.Register()
	b, chB := h.Register()
	if a == b {
		t.Fatalf("handles must differ, both %d", a)
	}
	if got := testutil.ToFloat64(m.Listeners); got != 2 {
		t.Fatalf("listeners gauge = %v", got)
	}

	h.Broadcast("hello")
	if <-chA != "hello" || <-chB != "hello" {
		t.Fatal("broadcast not delivered to both")
	}

	if !h.SendTo(b, "only b") {
		t.Fatal("SendTo returned false for live listener")
	}
	select {
	case line := <-chA:
		t.Fatalf("a got %q", line)
	default:
	}
	if <-chB != "only b" {
		t.Fatal("b missed direct line")
	}
}

func TestHub_UnregisterClosesAndDrops(t *testing.T) {
	h := NewHub(nil)
	id, ch := h.Register()
	h.Unregister(id)
	h.Unregister(id) // twice is harmless

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Unregister")
	}
	if h.SendTo(id, "x") {
		t.Fatal("SendTo succeeded for a gone listener")
	}
	h.Broadcast("nobody listens")
	if h.Count() != 0 {
		t.Fatalf("Count = %d", h.Count())
	}
}

func TestHub_SlowListenerDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	_, ch := h.Register()
	for i := 0; i < listenerBuffer+10; i++ {
		h.Broadcast(fmt.Sprint(i))
	}
	if len(ch) != listenerBuffer {
		t.Fatalf("buffered = %d, want %d", len(ch), listenerBuffer)
	}
	if first := <-ch; first != "0" {
		t.Fatalf("oldest line = %q, want 0", first)
	}
}
