package model

// Faucet describes where test funds can be obtained.
type Faucet struct {
	Type    string `json:"type" toml:"type"`
	Address string `json:"address" toml:"address"`
}

// NetworkProfile is one configured network endpoint.
type NetworkProfile struct {
	URL         string  `json:"url" toml:"url"`
	Explorer    string  `json:"explorer" toml:"explorer"`
	Description string  `json:"description" toml:"description"`
	Site        string  `json:"site,omitempty" toml:"site"`
	Faucet      *Faucet `json:"faucet,omitempty" toml:"faucet"`
}

// NetworkInfo is a profile together with its name.
type NetworkInfo struct {
	Name    string         `json:"name"`
	Network NetworkProfile `json:"network"`
}

// EventType tags a broadcast notification.
type EventType string

const (
	EventNetworkChanged EventType = "network_changed"
	EventKeyringChanged EventType = "keyring_changed"
)

// Event is a one-way notification delivered to every live context.
type Event struct {
	Type    EventType    `json:"type"`
	Network *NetworkInfo `json:"network,omitempty"`
}
