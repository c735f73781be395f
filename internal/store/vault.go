package store

import (
	"encoding/json"
	"fmt"

	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"
)

const vaultPrefix = "vault/"

// Vault is a password-encrypted key-value store. Keys are stored in the clear,
// values are sealed under a key derived from the per-call password.
type Vault struct {
	backend Backend
	sealer  *crypto.Sealer
}

// NewVault returns a Vault over backend with the given scrypt cost (0 means default).
func NewVault(backend Backend, scryptN int) *Vault {
	return &Vault{backend: backend, sealer: crypto.NewSealer(scryptN)}
}

// Set encrypts plaintext under password and stores it at key, replacing any previous entry.
// password must be []byte for security (caller should zero it after use)
func (v *Vault) Set(key string, plaintext, password []byte) error {
	if len(key) == 0 {
		return ErrZeroKey
	}

	env, err := v.sealer.Seal(plaintext, password, []byte(key))
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return v.backend.Put(vaultPrefix+key, raw)
}

// Get returns the decrypted value stored at key.
// It fails with ErrNotFound if nothing is stored and with model.ErrDecryptionFailed
// if password is wrong or the entry was tampered with.
// The caller owns the returned slice and should clear it after use.
func (v *Vault) Get(key string, password []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrZeroKey
	}

	raw, err := v.backend.Get(vaultPrefix + key)
	if err != nil {
		return nil, err
	}

	var env crypto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope %s: %w", key, model.ErrDecryptionFailed)
	}
	return crypto.Open(&env, password, []byte(key))
}

// Delete removes key. Removing a missing key is a no-op.
func (v *Vault) Delete(key string) error {
	if len(key) == 0 {
		return ErrZeroKey
	}
	return v.backend.Delete(vaultPrefix + key)
}
