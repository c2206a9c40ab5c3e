package service

import (
	"errors"
	"fmt"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/platform"
)

// ErrSessionActive rejects an upload while another one is in flight.
var ErrSessionActive = errors.New("firmware update already in progress")

type OTAEventKind int

const (
	EventStart OTAEventKind = iota
	EventChunk
	EventEnd
	EventAbort // client went away mid-upload
)

func (k OTAEventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventChunk:
		return "chunk"
	case EventEnd:
		return "end"
	case EventAbort:
		return "abort"
	}
	return fmt.Sprintf("OTAEventKind(%d)", int(k))
}

type OTAEvent struct {
	Kind     OTAEventKind
	Filename string // EventStart
	Data     []byte // EventChunk
	SHA256   string // EventEnd, optional hex digest
	Reason   string // EventAbort
}

// OTAManager drives the single firmware-replacement session. Dispatch is
// called from the run loop only.
type OTAManager struct {
	slot    platform.FirmwareSlot
	log     *logger.Logger
	metrics *metrics.Metrics

	session models.OTASession
}

func NewOTAManager(slot platform.FirmwareSlot, log *logger.Logger, m *metrics.Metrics) *OTAManager {
	if log == nil {
		log = logger.Nop()
	}
	return &OTAManager{slot: slot, log: log, metrics: m, session: models.OTASession{Phase: models.OTAIdle}}
}

// Session returns a copy of the current session.
func (m *OTAManager) Session() models.OTASession {
	return m.session
}

// Dispatch applies ev and returns the resulting phase. The only error is
// ErrSessionActive; write and commit failures are reported through the
// phase.
func (m *OTAManager) Dispatch(ev OTAEvent) (models.OTAPhase, error) {
	switch ev.Kind {
	case EventStart:
		if m.session.Phase.Active() {
			return m.session.Phase, ErrSessionActive
		}
		m.start(ev.Filename)
	case EventChunk:
		m.chunk(ev.Data)
	case EventEnd:
		m.end(ev.SHA256)
	case EventAbort:
		if m.session.Phase == models.OTAReceiving {
			m.slot.Abort()
			m.fail(fmt.Sprintf("upload aborted: %s", ev.Reason))
		}
	}
	return m.session.Phase, nil
}

func (m *OTAManager) start(filename string) {
	m.session = models.OTASession{Phase: models.OTAReceiving, Filename: filename}
	m.log.Infow("ota_started", "filename", filename)
	if err := m.slot.Begin(); err != nil {
		m.fail(fmt.Sprintf("prepare slot: %v", err))
	}
}

func (m *OTAManager) chunk(data []byte) {
	if m.session.Phase != models.OTAReceiving {
		return
	}
	n, err := m.slot.Write(data)
	m.session.BytesWritten += int64(n)
	if m.metrics != nil {
		m.metrics.OTABytes.Add(float64(n))
	}
	switch {
	case err != nil:
		m.slot.Abort()
		m.fail(fmt.Sprintf("write at offset %d: %v", m.session.BytesWritten, err))
	case n < len(data):
		m.slot.Abort()
		m.fail(fmt.Sprintf("short write at offset %d: %d of %d bytes", m.session.BytesWritten, n, len(data)))
	}
}

func (m *OTAManager) end(wantSHA256 string) {
	switch m.session.Phase {
	case models.OTAIdle:
		m.fail("no firmware received")
		m.finish()
		return
	case models.OTAReceiving:
	default:
		// already finished; a failed session stays failed
		m.finish()
		return
	}

	m.session.Phase = models.OTACommitting
	if err := m.slot.Commit(wantSHA256); err != nil {
		m.fail(fmt.Sprintf("commit: %v", err))
		m.finish()
		return
	}
	m.session.Phase = models.OTADone
	m.log.Infow("ota_committed", "filename", m.session.Filename, "bytes", m.session.BytesWritten)
	m.finish()
}

// fail records the first failure only.
func (m *OTAManager) fail(reason string) {
	if m.session.Error == "" {
		m.session.Error = reason
	}
	m.session.Phase = models.OTAFailed
	m.log.Errorw("ota_failed", "filename", m.session.Filename, "bytes", m.session.BytesWritten, "error", reason)
}

func (m *OTAManager) finish() {
	if m.metrics != nil {
		m.metrics.OTASessions.WithLabelValues(string(m.session.Phase)).Inc()
	}
}
