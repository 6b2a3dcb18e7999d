package models

import "time"

// Traffic holds cumulative byte counters for a device.
type Traffic struct {
	Received int64 `json:"received"`
	Sent     int64 `json:"sent"`
}

// MergedConfig is the reconciled, in-memory view of a persisted config
// overlaid with live device state from the provisioning API. A config the
// remote does not know about carries offline defaults; a device the panel
// does not know about becomes a synthetic entry with no owning client.
type MergedConfig struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Protocol      Protocol  `json:"protocol"`
	ExpiresAt     string    `json:"expiresAt"`
	ClientID      *int      `json:"clientId"`
	CreatedAt     time.Time `json:"createdAt"`
	Online        bool      `json:"online"`
	LastHandshake int64     `json:"lastHandshake"`
	Traffic       Traffic   `json:"traffic"`
	AllowedIPs    []string  `json:"allowedIps"`
	Endpoint      string    `json:"endpoint"`
}

// ClientWithConfigs is a client together with its reconciled configs.
// ConfigsCount reflects the currently applied filters, not the stored total.
type ClientWithConfigs struct {
	Client
	Configs      []MergedConfig `json:"configs"`
	ConfigsCount int            `json:"configsCount"`
}
