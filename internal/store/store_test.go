package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScryptN = 1 << 10

func newTestVault(t *testing.T) (*Vault, Backend) {
	t.Helper()
	backend := NewMemory()
	t.Cleanup(func() { backend.Close() })
	return NewVault(backend, testScryptN), backend
}

func TestVaultRoundTrip(t *testing.T) {
	vault, _ := newTestVault(t)

	require.NoError(t, vault.Set("K1", []byte("S1"), []byte("good")))

	value, err := vault.Get("K1", []byte("good"))
	require.NoError(t, err)
	assert.Equal(t, "S1", string(value))
}

func TestVaultWrongPassword(t *testing.T) {
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Set("K1", []byte("S1"), []byte("good")))

	_, err := vault.Get("K1", []byte("bad"))
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)
}

func TestVaultMissingKey(t *testing.T) {
	vault, _ := newTestVault(t)

	_, err := vault.Get("nope", []byte("good"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestVaultOverwrite(t *testing.T) {
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Set("K1", []byte("old"), []byte("one")))
	require.NoError(t, vault.Set("K1", []byte("new"), []byte("two")))

	_, err := vault.Get("K1", []byte("one"))
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)

	value, err := vault.Get("K1", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(value))
}

func TestVaultDeleteIsIdempotent(t *testing.T) {
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Set("K1", []byte("S1"), []byte("good")))

	require.NoError(t, vault.Delete("K1"))
	require.NoError(t, vault.Delete("K1"))

	_, err := vault.Get("K1", []byte("good"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVaultZeroKey(t *testing.T) {
	vault, _ := newTestVault(t)

	assert.ErrorIs(t, vault.Set("", []byte("x"), []byte("pw")), ErrZeroKey)
	_, err := vault.Get("", []byte("pw"))
	assert.ErrorIs(t, err, ErrZeroKey)
	assert.ErrorIs(t, vault.Delete(""), ErrZeroKey)
}

func TestVaultSwappedEntriesFail(t *testing.T) {
	vault, backend := newTestVault(t)
	require.NoError(t, vault.Set("K1", []byte("S1"), []byte("good")))
	require.NoError(t, vault.Set("K2", []byte("S2"), []byte("good")))

	// Move K2's ciphertext under K1
	raw, err := backend.Get(vaultPrefix + "K2")
	require.NoError(t, err)
	require.NoError(t, backend.Put(vaultPrefix+"K1", raw))

	_, err = vault.Get("K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)
}

func TestVaultTamperedEnvelope(t *testing.T) {
	for name, tamper := range map[string]func(env *crypto.Envelope){
		"version":         func(env *crypto.Envelope) { env.Version = 2 },
		"cost not pow2":   func(env *crypto.Envelope) { env.N = 1000 },
		"cost too large":  func(env *crypto.Envelope) { env.N = 1 << 40 },
		"cost changed":    func(env *crypto.Envelope) { env.N = testScryptN * 2 },
		"salt base64":     func(env *crypto.Envelope) { env.Salt = "!!not-base64!!" },
		"nonce base64":    func(env *crypto.Envelope) { env.Nonce = "!!not-base64!!" },
		"nonce length":    func(env *crypto.Envelope) { env.Nonce = "AAAA" },
		"cipherText b64":  func(env *crypto.Envelope) { env.CipherText = "!!not-base64!!" },
		"cipherText flip": func(env *crypto.Envelope) { env.CipherText = "AAAA" + env.CipherText[4:] },
	} {
		t.Run(name, func(t *testing.T) {
			vault, backend := newTestVault(t)
			require.NoError(t, vault.Set("K1", []byte("S1"), []byte("good")))

			raw, err := backend.Get(vaultPrefix + "K1")
			require.NoError(t, err)
			var env crypto.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			tamper(&env)
			raw, err = json.Marshal(env)
			require.NoError(t, err)
			require.NoError(t, backend.Put(vaultPrefix+"K1", raw))

			_, err = vault.Get("K1", []byte("good"))
			assert.ErrorIs(t, err, model.ErrDecryptionFailed)
		})
	}
}

func TestVaultCorruptEntry(t *testing.T) {
	vault, backend := newTestVault(t)
	require.NoError(t, backend.Put(vaultPrefix+"K1", []byte("{not json")))

	_, err := vault.Get("K1", []byte("good"))
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)
}

func TestVaultStoresNoPlaintext(t *testing.T) {
	vault, backend := newTestVault(t)
	require.NoError(t, vault.Set("K1", []byte("very-secret-value"), []byte("good")))

	raw, err := backend.Get(vaultPrefix + "K1")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "very-secret-value")

	var env crypto.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, testScryptN, env.N)
	assert.NotEmpty(t, env.Salt)
	assert.NotEmpty(t, env.Nonce)
}

func TestLevelDBPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	backend, err := OpenLevelDB(dir)
	require.NoError(t, err)
	vault := NewVault(backend, testScryptN)
	require.NoError(t, vault.Set("K1", []byte("S1"), []byte("good")))
	require.NoError(t, backend.Close())

	backend, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer backend.Close()

	value, err := NewVault(backend, testScryptN).Get("K1", []byte("good"))
	require.NoError(t, err)
	assert.Equal(t, "S1", string(value))
}

func TestSettings(t *testing.T) {
	backend := NewMemory()
	defer backend.Close()
	settings := NewSettings(backend)

	var name string
	assert.ErrorIs(t, settings.Load("network.current", &name), ErrNotFound)

	require.NoError(t, settings.Save("network.current", "devnet"))
	require.NoError(t, settings.Load("network.current", &name))
	assert.Equal(t, "devnet", name)
}
