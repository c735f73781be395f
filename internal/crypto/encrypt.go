package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// DefaultScryptN is the cost for new entries; every unlock pays it once.
	DefaultScryptN = 1 << 15
	// MaxScryptN bounds the cost an envelope may ask for.
	MaxScryptN     = 1 << 18
	legacyScryptN  = MaxScryptN

	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	envelopeVersion = 1
)

// Envelope is the persisted form of one encrypted entry.
// The scrypt cost travels with the entry so it can be raised later without
// breaking existing data.
type Envelope struct {
	Version    int    `json:"version"`
	N          int    `json:"n"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// Sealer encrypts payloads under password-derived keys.
type Sealer struct {
	N int
}

// NewSealer returns a Sealer with the given scrypt cost, DefaultScryptN when n is 0.
// Invalid costs are the caller's bug and surface on Seal.
func NewSealer(n int) *Sealer {
	if n == 0 {
		n = DefaultScryptN
	}
	return &Sealer{N: n}
}

// Seal encrypts plaintext with a key derived from password and a fresh salt.
// additionalData is authenticated but not encrypted; callers bind the storage key
// here so two entries cannot be swapped.
// password must be []byte for security (caller should zero it after use)
func (s *Sealer) Seal(plaintext, password, additionalData []byte) (*Envelope, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	if !ValidScryptN(s.N) {
		return nil, fmt.Errorf("invalid scrypt cost %d", s.N)
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt, s.N)
	if err != nil {
		return nil, err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, boundData(envelopeVersion, s.N, additionalData))

	return &Envelope{
		Version:    envelopeVersion,
		N:          s.N,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// boundData prefixes additionalData with the envelope header so version and
// cost cannot be altered without failing authentication.
func boundData(version, n int, additionalData []byte) []byte {
	header := fmt.Sprintf("v%d/n%d/", version, n)
	return append([]byte(header), additionalData...)
}

// ValidScryptN reports whether n is a power of two in [2, MaxScryptN].
func ValidScryptN(n int) bool {
	return n >= 2 && n <= MaxScryptN && n&(n-1) == 0
}

// newGCM derives the AES key from password and salt and wraps it in GCM.
func newGCM(password, salt []byte, n int) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, n, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
