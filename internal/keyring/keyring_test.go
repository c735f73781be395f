package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"
	"github.com/AlexZinkM/wallet-guard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testScryptN     = 1 << 10
	testIndexSecret = "TONWallet"
)

func newTestKeyring(t *testing.T, vault Vault) *Keyring {
	t.Helper()
	kr := New(vault, testIndexSecret, zaptest.NewLogger(t))
	require.NoError(t, kr.Initialize(context.Background()))
	return kr
}

func newTestVault(t *testing.T) *store.Vault {
	t.Helper()
	backend := store.NewMemory()
	t.Cleanup(func() { backend.Close() })
	return store.NewVault(backend, testScryptN)
}

func rawSecret(s string) model.SecretPayload {
	return model.SecretPayload{PrivateKey: s}
}

func TestUnknownIdentity(t *testing.T) {
	kr := newTestKeyring(t, newTestVault(t))

	assert.False(t, kr.IsKnown("K1"))
	_, err := kr.ExtractKey(context.Background(), "K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, kr.ListIdentities())
}

func TestAddAndExtract(t *testing.T) {
	ctx := context.Background()
	kr := newTestKeyring(t, newTestVault(t))

	require.NoError(t, kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good")))
	assert.True(t, kr.IsKnown("K1"))

	kp, err := kr.ExtractKey(ctx, "K1", []byte("good"))
	require.NoError(t, err)
	assert.Equal(t, "K1", kp.Public)
	require.NotNil(t, kp.Secret)
	assert.Equal(t, "S1", kp.Secret.PrivateKey)

	_, err = kr.ExtractKey(ctx, "K1", []byte("bad"))
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)
}

func TestAddSeedKey(t *testing.T) {
	ctx := context.Background()
	kr := newTestKeyring(t, newTestVault(t))

	seed := model.SecretPayload{Seed: &model.SeedConfig{Phrase: "word list", Path: "m/44'/501'/0'/0'"}}
	require.NoError(t, kr.AddKey(ctx, "K1", seed, []byte("good")))

	records := kr.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSeed)

	kp, err := kr.ExtractKey(ctx, "K1", []byte("good"))
	require.NoError(t, err)
	require.NotNil(t, kp.Secret.Seed)
	assert.Equal(t, "word list", kp.Secret.Seed.Phrase)
}

func TestAddDuplicateKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	kr := newTestKeyring(t, newTestVault(t))

	require.NoError(t, kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good")))
	err := kr.AddKey(ctx, "K1", rawSecret("S2"), []byte("other"))
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	kp, err := kr.ExtractKey(ctx, "K1", []byte("good"))
	require.NoError(t, err)
	assert.Equal(t, "S1", kp.Secret.PrivateKey)
	assert.Equal(t, []string{"K1"}, kr.ListIdentities())
}

func TestAddRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	kr := newTestKeyring(t, newTestVault(t))

	assert.Error(t, kr.AddKey(ctx, "", rawSecret("S1"), []byte("good")))
	assert.Error(t, kr.AddKey(ctx, IndexKey, rawSecret("S1"), []byte("good")))
	assert.Error(t, kr.AddKey(ctx, "K1", model.SecretPayload{}, []byte("good")))
	assert.Error(t, kr.AddKey(ctx, "K1", rawSecret("S1"), nil))
	assert.False(t, kr.IsKnown("K1"))
}

func TestRemoveKey(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)
	kr := newTestKeyring(t, vault)

	require.NoError(t, kr.RemoveKey(ctx, "unknown"))

	require.NoError(t, kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good")))
	require.NoError(t, kr.RemoveKey(ctx, "K1"))
	require.NoError(t, kr.RemoveKey(ctx, "K1"))

	assert.False(t, kr.IsKnown("K1"))
	_, err := kr.ExtractKey(ctx, "K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = vault.Get("K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInsertionOrderSurvivesReload(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)
	kr := newTestKeyring(t, vault)

	for _, id := range []string{"K3", "K1", "K2"} {
		require.NoError(t, kr.AddKey(ctx, id, rawSecret("S-"+id), []byte("pw")))
	}
	require.NoError(t, kr.RemoveKey(ctx, "K1"))

	reloaded := newTestKeyring(t, vault)
	assert.Equal(t, []string{"K3", "K2"}, reloaded.ListIdentities())

	kp, err := reloaded.ExtractKey(ctx, "K2", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "S-K2", kp.Secret.PrivateKey)
}

func TestInitializeFailsOpen(t *testing.T) {
	vault := newTestVault(t)
	// Index sealed under a different secret cannot be opened
	require.NoError(t, vault.Set(IndexKey, []byte(`[{"identity":"K1"}]`), []byte("not-the-index-secret")))

	kr := newTestKeyring(t, vault)
	assert.Empty(t, kr.ListIdentities())
	assert.False(t, kr.IsKnown("K1"))
}

func TestInitializeIgnoresTamperedIndexCost(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	t.Cleanup(func() { backend.Close() })
	vault := store.NewVault(backend, testScryptN)

	kr := newTestKeyring(t, vault)
	require.NoError(t, kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good")))

	// Rewrite the stored index with an absurd scrypt cost
	raw, err := backend.Get("vault/" + IndexKey)
	require.NoError(t, err)
	var env crypto.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	env.N = 1 << 40
	raw, err = json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, backend.Put("vault/"+IndexKey, raw))

	reloaded := New(vault, testIndexSecret, zaptest.NewLogger(t))
	require.NotPanics(t, func() {
		require.NoError(t, reloaded.Initialize(ctx))
	})
	assert.Empty(t, reloaded.ListIdentities())
	assert.False(t, reloaded.IsKnown("K1"))
}

func TestMissingSecretIsNotFound(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)
	kr := newTestKeyring(t, vault)
	require.NoError(t, kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good")))

	// Simulate a lost secret entry
	require.NoError(t, vault.Delete("K1"))

	_, err := kr.ExtractKey(ctx, "K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// failingVault fails writes of the index.
type failingVault struct {
	Vault
}

func (f failingVault) Set(key string, plaintext, password []byte) error {
	if key == IndexKey {
		return errors.New("disk full")
	}
	return f.Vault.Set(key, plaintext, password)
}

func TestAddRollsBackSecretWhenIndexFails(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)
	kr := newTestKeyring(t, failingVault{Vault: vault})

	err := kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good"))
	require.Error(t, err)
	assert.False(t, kr.IsKnown("K1"))

	_, err = vault.Get("K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemoveKeepsKeyWhenIndexFails(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)
	kr := newTestKeyring(t, vault)
	require.NoError(t, kr.AddKey(ctx, "K1", rawSecret("S1"), []byte("good")))

	kr.vault = failingVault{Vault: vault}
	require.Error(t, kr.RemoveKey(ctx, "K1"))

	assert.True(t, kr.IsKnown("K1"))
	kp, err := kr.ExtractKey(ctx, "K1", []byte("good"))
	require.NoError(t, err)
	assert.Equal(t, "S1", kp.Secret.PrivateKey)
}
