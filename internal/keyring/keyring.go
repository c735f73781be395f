package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"go.uber.org/zap"
)

// IndexKey is the reserved vault key holding the keyring index.
const IndexKey = "keyring.index"

// Vault is the encrypted storage the keyring writes through.
type Vault interface {
	Set(key string, plaintext, password []byte) error
	Get(key string, password []byte) ([]byte, error)
	Delete(key string) error
}

// Keyring maps public identities to encrypted secrets.
// The index is one vault entry under IndexKey sealed with a fixed application secret,
// each secret is its own vault entry sealed with the password supplied when it was added.
type Keyring struct {
	vault       Vault
	indexSecret []byte
	log         *zap.Logger

	mu      sync.RWMutex
	records []model.KeyRecord
	now     func() time.Time
}

// New returns an uninitialized keyring. Call Initialize before use.
func New(vault Vault, indexSecret string, logger *zap.Logger) *Keyring {
	return &Keyring{
		vault:       vault,
		indexSecret: []byte(indexSecret),
		log:         logger.Named("keyring"),
		now:         time.Now,
	}
}

// Initialize loads the index. A missing index yields an empty keyring.
// An unreadable index also yields an empty keyring so the daemon stays usable;
// the failure is logged and the stored secrets are left untouched.
func (k *Keyring) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.records = nil
	records, err := k.loadIndex()
	switch {
	case errors.Is(err, model.ErrNotFound):
		k.log.Info("no keyring index, starting empty")
	case err != nil:
		k.log.Warn("failed to load keyring index, starting empty", zap.Error(err))
	default:
		k.records = records
		k.log.Info("keyring loaded", zap.Int("keys", len(records)))
	}
	return nil
}

func (k *Keyring) loadIndex() ([]model.KeyRecord, error) {
	raw, err := k.vault.Get(IndexKey, k.indexSecret)
	if err != nil {
		return nil, err
	}
	var records []model.KeyRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyring index: %w", err)
	}
	return records, nil
}

func (k *Keyring) saveIndex(records []model.KeyRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal keyring index: %w", err)
	}
	if err := k.vault.Set(IndexKey, raw, k.indexSecret); err != nil {
		return fmt.Errorf("failed to save keyring index: %w", err)
	}
	return nil
}

func (k *Keyring) indexOf(identity string) int {
	return slices.IndexFunc(k.records, func(r model.KeyRecord) bool {
		return r.Identity == identity
	})
}

// AddKey stores secret under identity, encrypted with password.
// It fails with model.ErrAlreadyExists if identity is already indexed and leaves the
// existing secret untouched. The secret is written before the index so an indexed
// identity always has a secret.
// password must be []byte for security (caller should zero it after use)
func (k *Keyring) AddKey(ctx context.Context, identity string, secret model.SecretPayload, password []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identity == "" || identity == IndexKey {
		return fmt.Errorf("invalid identity %q", identity)
	}
	if err := secret.Validate(); err != nil {
		return err
	}
	if len(password) == 0 {
		return errors.New("password cannot be empty")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.indexOf(identity) >= 0 {
		return model.ErrAlreadyExists
	}

	plaintext, err := json.Marshal(secret)
	if err != nil {
		return fmt.Errorf("failed to marshal secret: %w", err)
	}
	defer clear(plaintext)

	if err := k.vault.Set(identity, plaintext, password); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	records := append(slices.Clone(k.records), model.KeyRecord{
		Identity:  identity,
		IsSeed:    secret.IsSeed(),
		CreatedAt: k.now().UTC(),
	})
	if err := k.saveIndex(records); err != nil {
		if rbErr := k.vault.Delete(identity); rbErr != nil {
			k.log.Error("failed to roll back secret", zap.String("identity", identity), zap.Error(rbErr))
		}
		return err
	}
	k.records = records

	k.log.Info("key added", zap.String("identity", identity), zap.Bool("isSeed", secret.IsSeed()))
	return nil
}

// ExtractKey decrypts the secret of identity.
// It fails with model.ErrNotFound if identity is not indexed or its secret is missing,
// and with model.ErrDecryptionFailed if password is wrong.
// password must be []byte for security (caller should zero it after use)
func (k *Keyring) ExtractKey(ctx context.Context, identity string, password []byte) (model.KeyPair, error) {
	if err := ctx.Err(); err != nil {
		return model.KeyPair{}, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.indexOf(identity) < 0 {
		return model.KeyPair{}, model.ErrNotFound
	}

	plaintext, err := k.vault.Get(identity, password)
	if errors.Is(err, model.ErrNotFound) {
		k.log.Warn("indexed key has no secret entry", zap.String("identity", identity))
		return model.KeyPair{}, model.ErrNotFound
	}
	if err != nil {
		return model.KeyPair{}, err
	}
	defer clear(plaintext)

	var secret model.SecretPayload
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return model.KeyPair{}, fmt.Errorf("failed to unmarshal secret: %w", err)
	}
	return model.KeyPair{Public: identity, Secret: &secret}, nil
}

// RemoveKey forgets identity. The index is updated first, the secret deleted second.
// Removing an unknown identity is a no-op.
func (k *Keyring) RemoveKey(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	i := k.indexOf(identity)
	if i < 0 {
		return nil
	}

	records := slices.Delete(slices.Clone(k.records), i, i+1)
	if err := k.saveIndex(records); err != nil {
		return err
	}
	k.records = records

	if err := k.vault.Delete(identity); err != nil {
		// The identity is no longer indexed so the orphan is unreachable
		k.log.Warn("failed to delete secret", zap.String("identity", identity), zap.Error(err))
	}

	k.log.Info("key removed", zap.String("identity", identity))
	return nil
}

// IsKnown reports whether identity is indexed.
func (k *Keyring) IsKnown(identity string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.indexOf(identity) >= 0
}

// ListIdentities returns the indexed identities in insertion order.
func (k *Keyring) ListIdentities() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	identities := make([]string, len(k.records))
	for i, r := range k.records {
		identities[i] = r.Identity
	}
	return identities
}

// Records returns a copy of the index.
func (k *Keyring) Records() []model.KeyRecord {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Clone(k.records)
}
