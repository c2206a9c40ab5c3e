package models

import "time"

// Event types recorded in the device history.
const (
	EventBoot        = "BOOT"
	EventNetwork     = "NETWORK"
	EventCommand     = "COMMAND"
	EventStatus      = "STATUS"
	EventIndicator   = "INDICATOR"
	EventOTA         = "OTA"
	EventCredentials = "CREDENTIALS"
)

// DeviceEvent is a single broadcast line kept in history.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // BOOT | NETWORK | COMMAND | STATUS | INDICATOR | OTA | CREDENTIALS
	Description string    `json:"description"` // the line as broadcast, without address prefix
	Metadata    any       `json:"metadata,omitempty"`
}
