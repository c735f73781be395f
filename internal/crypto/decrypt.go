package crypto

import (
	"encoding/base64"
	"fmt"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// Open decrypts an envelope produced by Seal.
// A wrong password and a tampered envelope both return model.ErrDecryptionFailed.
// The caller owns the returned plaintext and should clear it after use.
func Open(env *Envelope, password, additionalData []byte) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("empty envelope: %w", model.ErrDecryptionFailed)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d: %w", env.Version, model.ErrDecryptionFailed)
	}
	if !ValidScryptN(env.N) {
		return nil, fmt.Errorf("invalid scrypt cost %d: %w", env.N, model.ErrDecryptionFailed)
	}

	// Decode salt and nonce
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", model.ErrDecryptionFailed)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", model.ErrDecryptionFailed)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", model.ErrDecryptionFailed)
	}

	aesGCM, err := newGCM(password, salt, env.N)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecryptionFailed, err)
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length: %w", model.ErrDecryptionFailed)
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, boundData(env.Version, env.N, additionalData))
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	return plaintext, nil
}
