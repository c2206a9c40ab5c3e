package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Indicator is the primary on/off output (the status LED).
type Indicator interface {
	Set(on bool) error
	On() (bool, error)
}

// SysfsLED drives /sys/class/leds/<name>/brightness. ActiveLow inverts
// the written value for boards whose LED is wired to the supply.
type SysfsLED struct {
	Path      string
	ActiveLow bool
}

func NewSysfsLED(name string, activeLow bool) *SysfsLED {
	return &SysfsLED{Path: filepath.Join("/sys/class/leds", name, "brightness"), ActiveLow: activeLow}
}

func (l *SysfsLED) Set(on bool) error {
	level := on != l.ActiveLow
	v := "0"
	if level {
		v = "1"
	}
	if err := os.WriteFile(l.Path, []byte(v), 0o644); err != nil {
		return fmt.Errorf("write led %s: %w", l.Path, err)
	}
	return nil
}

func (l *SysfsLED) On() (bool, error) {
	b, err := os.ReadFile(l.Path)
	if err != nil {
		return false, fmt.Errorf("read led %s: %w", l.Path, err)
	}
	level := strings.TrimSpace(string(b)) != "0"
	return level != l.ActiveLow, nil
}

// MemoryIndicator keeps the state in memory.
type MemoryIndicator struct {
	mu sync.Mutex
	on bool
}

func (m *MemoryIndicator) Set(on bool) error {
	m.mu.Lock()
	m.on = on
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndicator) On() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on, nil
}
