package models

// ConnectionState is the outcome of the boot-time network negotiation.
type ConnectionState string

const (
	Disconnected  ConnectionState = "DISCONNECTED"
	ConnectingSTA ConnectionState = "CONNECTING_STA"
	JoinedSTA     ConnectionState = "JOINED_STA"
	FallbackAP    ConnectionState = "FALLBACK_AP"
)

// Terminal reports whether no further transition is possible this boot.
func (s ConnectionState) Terminal() bool {
	return s == JoinedSTA || s == FallbackAP
}
