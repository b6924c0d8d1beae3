// Package vault decrypts burn-wallet private keys at the moment of use.
// Keys are stored as base64(nonce || AES-256-GCM ciphertext) and sealed
// with a single process-wide master key supplied via the environment.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// KeySize is the required master key length in bytes (AES-256).
const KeySize = 32

// ErrDecryption marks any failure to recover a plaintext: wrong key,
// truncated ciphertext, or GCM tag mismatch. Callers cannot distinguish
// these cases and must not retry with a different key.
var ErrDecryption = errors.New("vault: decryption failed")

type Vault struct {
	key []byte
}

// New parses a hex-encoded master key. A missing or mis-sized key is a
// startup error, never a runtime retry condition.
func New(masterKeyHex string) (*Vault, error) {
	if masterKeyHex == "" {
		return nil, errors.New("vault: master key is empty")
	}
	key, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("vault: master key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("vault: master key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Vault{key: key}, nil
}

// Decrypt recovers the plaintext private key from a stored ciphertext.
func (v *Vault) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrDecryption, err)
	}

	gcm, err := v.aead()
	if err != nil {
		return nil, err
	}

	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", ErrDecryption)
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

// Encrypt seals a plaintext under the master key. Used by the key-import
// path of the surrounding system and by tests.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: init gcm: %w", err)
	}
	return gcm, nil
}
