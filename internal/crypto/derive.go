package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// DefaultDerivationPath is the Solana BIP-44 account path used by common wallets.
const DefaultDerivationPath = "m/44'/501'/0'/0'"

const (
	hardenedOffset  = 0x80000000
	seedIterations  = 2048
	seedLen         = 64
	ed25519CurveKey = "ed25519 seed"
)

var errInvalidSecret = errors.New("invalid seed phrase or private key")

// KeypairFromSecret turns a stored secret payload into a Solana private key.
// Raw keys may be base58 (64 bytes) or hex (32-byte ed25519 seed).
// The caller should clear() the returned key after use.
func KeypairFromSecret(payload model.SecretPayload) (solana.PrivateKey, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if payload.Seed != nil {
		return keyFromMnemonic(*payload.Seed)
	}
	return keyFromRaw(strings.TrimSpace(payload.PrivateKey))
}

// IdentityFromSecret returns the base58 public key of the secret payload.
func IdentityFromSecret(payload model.SecretPayload) (string, error) {
	key, err := KeypairFromSecret(payload)
	if err != nil {
		return "", err
	}
	defer clear(key)
	return key.PublicKey().String(), nil
}

func keyFromRaw(raw string) (solana.PrivateKey, error) {
	// Is a hex encoded 32-byte secret
	if len(raw) == 64 {
		if seed, err := hex.DecodeString(raw); err == nil {
			defer clear(seed)
			return solana.PrivateKey(ed25519.NewKeyFromSeed(seed)), nil
		}
	}

	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidSecret, err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected 64 bytes, got %d", errInvalidSecret, len(key))
	}

	// The public half must match the secret half
	expected := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	defer clear(expected)
	if !bytes.Equal(expected, key) {
		return nil, fmt.Errorf("%w: public key does not match secret", errInvalidSecret)
	}
	return key, nil
}

func keyFromMnemonic(cfg model.SeedConfig) (solana.PrivateKey, error) {
	phrase := strings.Join(strings.Fields(norm.NFKD.String(cfg.Phrase)), " ")
	switch len(strings.Fields(phrase)) {
	case 12, 15, 18, 21, 24:
	default:
		return nil, fmt.Errorf("%w: unexpected word count", errInvalidSecret)
	}

	path := cfg.Path
	if path == "" {
		path = DefaultDerivationPath
	}
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	salt := []byte("mnemonic" + norm.NFKD.String(cfg.Passphrase))
	seed := pbkdf2.Key([]byte(phrase), salt, seedIterations, seedLen, sha512.New)
	defer clear(seed)

	key, chain := slip10Master(seed)
	for _, index := range segments {
		key, chain = slip10Child(key, chain, index)
	}
	defer clear(key)
	defer clear(chain)

	return solana.PrivateKey(ed25519.NewKeyFromSeed(key)), nil
}

// parsePath parses m/44'/501'/0'/0'. ed25519 only supports hardened children.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid derivation path %q", path)
	}

	segments := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if !strings.HasSuffix(part, "'") && !strings.HasSuffix(part, "h") {
			return nil, fmt.Errorf("invalid derivation path %q: ed25519 requires hardened segments", path)
		}
		n, err := strconv.ParseUint(part[:len(part)-1], 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path %q: %w", path, err)
		}
		segments = append(segments, uint32(n)+hardenedOffset)
	}
	return segments, nil
}

func slip10Master(seed []byte) ([]byte, []byte) {
	mac := hmac.New(sha512.New, []byte(ed25519CurveKey))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func slip10Child(key, chain []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)
	defer clear(data)

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
