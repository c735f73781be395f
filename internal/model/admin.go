package model

// AddKeyRequest represents request for POST /keys
type AddKeyRequest struct {
	Identity string        `json:"identity,omitempty"` // optional; derived from the secret when empty
	Secret   SecretPayload `json:"secret"`
	Password string        `json:"password" binding:"required"`
}

// GenerateKeyRequest represents request for POST /keys/generate
type GenerateKeyRequest struct {
	Password string `json:"password" binding:"required"`
}

// KeyResponse represents response for key creation endpoints
type KeyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Identity string `json:"identity,omitempty"`
}

// KeysResponse represents response for GET /keys
type KeysResponse struct {
	Identities []string `json:"identities"`
}

// ChangeNetworkRequest represents request for PUT /networks/current
type ChangeNetworkRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddNetworkRequest represents request for POST /networks
type AddNetworkRequest struct {
	Name    string         `json:"name" binding:"required"`
	Network NetworkProfile `json:"network"`
}

// NetworksResponse represents response for GET /networks
type NetworksResponse struct {
	Current  string                    `json:"current"`
	Networks map[string]NetworkProfile `json:"networks"`
}

// BalanceResponse represents response for GET /balance
type BalanceResponse struct {
	Identity string `json:"identity"`
	SOL      string `json:"sol"`
	Rate     string `json:"rate,omitempty"`
	USD      string `json:"sol_amount_in_usd,omitempty"`
}
