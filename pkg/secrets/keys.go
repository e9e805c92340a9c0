package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required size of the shared key.
	KeySize = 32 // 256 bits for AES-256

	// infoPrefix separates subkeys of this package from any other use of the
	// shared key.
	infoPrefix = "otpbridge-secrets-v1:"
)

// ValidateKey checks that key has the correct length.
func ValidateKey(key []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}
	return nil
}

// deriveKey creates the subkey for one field label.
// The caller must clear the returned key with clearBytes.
func deriveKey(key []byte, label string) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, key, nil, []byte(infoPrefix+label))

	derivedKey := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdfReader, derivedKey); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	return derivedKey, nil
}

// clearBytes zeros out a byte slice holding key material.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateKey creates a new random 32-byte key from the system CSPRNG.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
