package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// CWTFile represents the legacy .cwt wallet file structure
type CWTFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted legacy wallet data
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // 64 bytes (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// KeyRecord is one entry of the keyring index. It never holds secret material.
type KeyRecord struct {
	Identity  string    `json:"identity"`
	IsSeed    bool      `json:"isSeed"`
	CreatedAt time.Time `json:"createdAt"`
}

// SeedConfig is a mnemonic plus the derivation path used to reach the key.
type SeedConfig struct {
	Phrase     string `json:"phrase"`
	Path       string `json:"path,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// SecretPayload is what the keyring stores encrypted per identity:
// either a raw base58 private key or a seed with its derivation config.
type SecretPayload struct {
	PrivateKey string      `json:"privateKey,omitempty"`
	Seed       *SeedConfig `json:"seed,omitempty"`
}

// IsSeed reports whether the payload is seed-derived.
func (p SecretPayload) IsSeed() bool {
	return p.Seed != nil
}

// IsZero reports whether the payload carries no secret at all.
func (p SecretPayload) IsZero() bool {
	return p.PrivateKey == "" && (p.Seed == nil || p.Seed.Phrase == "")
}

// Validate checks that exactly one form of secret is present.
func (p SecretPayload) Validate() error {
	switch {
	case p.IsZero():
		return fmt.Errorf("secret payload is empty")
	case p.PrivateKey != "" && p.Seed != nil:
		return fmt.Errorf("secret payload must be either a private key or a seed, not both")
	}
	return nil
}

// Wipe drops the payload's references to secret strings.
func (p *SecretPayload) Wipe() {
	p.PrivateKey = ""
	if p.Seed != nil {
		p.Seed.Phrase = ""
		p.Seed.Passphrase = ""
	}
}

// UnmarshalJSON accepts either a bare private key string or the object form.
func (p *SecretPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.PrivateKey)
	}
	type plain SecretPayload
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = SecretPayload(v)
	return nil
}

// KeyPair is a public identity with an optional decrypted secret.
// A KeyPair without secret is a placeholder asking for approval.
type KeyPair struct {
	Public string         `json:"public"`
	Secret *SecretPayload `json:"secret,omitempty"`
}

// HasSecret reports whether the key pair carries usable secret material.
func (k *KeyPair) HasSecret() bool {
	return k != nil && k.Secret != nil && !k.Secret.IsZero()
}
