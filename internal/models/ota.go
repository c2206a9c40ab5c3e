package models

// OTAPhase is the phase of the single firmware-replacement session.
type OTAPhase string

const (
	OTAIdle       OTAPhase = "IDLE"
	OTAReceiving  OTAPhase = "RECEIVING"
	OTACommitting OTAPhase = "COMMITTING"
	OTAFailed     OTAPhase = "FAILED"
	OTADone       OTAPhase = "DONE"
)

// Active reports whether an upload is in flight.
func (p OTAPhase) Active() bool {
	return p == OTAReceiving || p == OTACommitting
}

// OTASession is the device-wide upload record.
type OTASession struct {
	Phase        OTAPhase `json:"phase"`
	Filename     string   `json:"filename,omitempty"`
	BytesWritten int64    `json:"bytes_written"`
	Error        string   `json:"error,omitempty"` // first failure, reported at finalisation
}
