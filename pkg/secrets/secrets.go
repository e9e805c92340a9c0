package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// EncryptString encrypts plaintext for the field named label, authenticating
// associated alongside it. Returns base64-encoded ciphertext.
func EncryptString(key []byte, label, plaintext string, associated []byte) (string, error) {
	ciphertext, err := EncryptBytes(key, label, []byte(plaintext), associated)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString decrypts a base64-encoded ciphertext produced by EncryptString
// with the same key, label and associated data.
func DecryptString(key []byte, label, ciphertext string, associated []byte) (string, error) {
	ciphertextBytes, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	plaintextBytes, err := DecryptBytes(key, label, ciphertextBytes, associated)
	if err != nil {
		return "", err
	}

	return string(plaintextBytes), nil
}

// EncryptBytes encrypts raw bytes for the field named label. associated is
// authenticated but not stored; decryption must supply the same bytes.
// Returns ciphertext in format: nonce + encrypted data + tag
func EncryptBytes(key []byte, label string, data, associated []byte) ([]byte, error) {
	aesGCM, err := newGCM(key, label)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	// Prepend nonce to ciphertext for storage
	return aesGCM.Seal(nonce, nonce, data, associated), nil
}

// DecryptBytes decrypts ciphertext back to raw bytes.
// Expects ciphertext in format: nonce + encrypted data + tag
func DecryptBytes(key []byte, label string, ciphertext, associated []byte) ([]byte, error) {
	aesGCM, err := newGCM(key, label)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize+aesGCM.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, associated)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

func newGCM(key []byte, label string) (cipher.AEAD, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	subkey, err := deriveKey(key, label)
	if err != nil {
		return nil, err
	}
	defer clearBytes(subkey)

	block, err := aes.NewCipher(subkey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
