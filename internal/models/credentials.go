package models

// Credentials is the saved network name/secret pair.
// An empty NetworkName means nothing is saved.
type Credentials struct {
	NetworkName string `json:"ssid"`
	Secret      string `json:"-"` // never echoed back
}

// IsEmpty reports whether no network is configured.
func (c Credentials) IsEmpty() bool {
	return c.NetworkName == ""
}
