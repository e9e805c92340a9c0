package secrets_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/dmitrymomot/otpbridge/pkg/secrets"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptString(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty string", ""},
		{"base32 secret", "JBSWY3DPEHPK3PXP"},
		{"otpauth uri", "otpauth://totp/Example:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example"},
		{"steam uri", "steam://JBSWY3DPEHPK3PXP"},
		{"unicode", "Hello 世界 🌍"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ciphertext, err := secrets.EncryptString(key, "totpKey", tt.plaintext, nil)
			require.NoError(t, err)

			if tt.plaintext != "" {
				require.NotEqual(t, tt.plaintext, ciphertext)
			}

			decrypted, err := secrets.DecryptString(key, "totpKey", ciphertext, nil)
			require.NoError(t, err)
			require.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEncryptDecryptBytes(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty bytes", []byte{}},
		{"single byte", []byte{42}},
		{"binary data", []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD}},
		{"text as bytes", []byte("Hello, World!")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ciphertext, err := secrets.EncryptBytes(key, "username", tt.data, nil)
			require.NoError(t, err)

			if len(tt.data) > 0 {
				require.False(t, bytes.Equal(ciphertext, tt.data))
			}

			decrypted, err := secrets.DecryptBytes(key, "username", ciphertext, nil)
			require.NoError(t, err)
			require.True(t, bytes.Equal(decrypted, tt.data))
		})
	}
}

func TestEncryptString_FreshNonce(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	a, err := secrets.EncryptString(key, "totpKey", "same", nil)
	require.NoError(t, err)
	b, err := secrets.EncryptString(key, "totpKey", "same", nil)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDifferentKeys(t *testing.T) {
	t.Parallel()
	key1, err := secrets.GenerateKey()
	require.NoError(t, err)
	key2, err := secrets.GenerateKey()
	require.NoError(t, err)

	ciphertext, err := secrets.EncryptString(key1, "totpKey", "secret", nil)
	require.NoError(t, err)

	_, err = secrets.DecryptString(key2, "totpKey", ciphertext, nil)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)

	decrypted, err := secrets.DecryptString(key1, "totpKey", ciphertext, nil)
	require.NoError(t, err)
	require.Equal(t, "secret", decrypted)
}

func TestDifferentLabels(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	ciphertext, err := secrets.EncryptString(key, "username", "alice", nil)
	require.NoError(t, err)

	// A ciphertext moved to another field does not authenticate.
	_, err = secrets.DecryptString(key, "accountEmail", ciphertext, nil)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestAssociatedData(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	ciphertext, err := secrets.EncryptString(key, "totpKey", "JBSWY3DPEHPK3PXP", []byte("item-1"))
	require.NoError(t, err)

	decrypted, err := secrets.DecryptString(key, "totpKey", ciphertext, []byte("item-1"))
	require.NoError(t, err)
	require.Equal(t, "JBSWY3DPEHPK3PXP", decrypted)

	// The same field of another record does not authenticate.
	_, err = secrets.DecryptString(key, "totpKey", ciphertext, []byte("item-2"))
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	_, err = secrets.DecryptString(key, "totpKey", ciphertext, nil)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestInvalidKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  []byte
	}{
		{"nil key", nil},
		{"short key", make([]byte, 16)},
		{"long key", make([]byte, 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, secrets.ValidateKey(tt.key), secrets.ErrInvalidKey)

			_, err := secrets.EncryptString(tt.key, "totpKey", "test", nil)
			require.ErrorIs(t, err, secrets.ErrInvalidKey)
			require.ErrorIs(t, err, secrets.ErrEncryptionFailed)

			_, err = secrets.DecryptBytes(tt.key, "totpKey", make([]byte, 64), nil)
			require.ErrorIs(t, err, secrets.ErrInvalidKey)
		})
	}
}

func TestInvalidCiphertext(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	valid, err := secrets.EncryptBytes(key, "totpKey", []byte("payload"), nil)
	require.NoError(t, err)
	tampered := bytes.Clone(valid)
	tampered[len(tampered)-1] ^= 0xFF

	tests := []struct {
		name       string
		ciphertext string
		wantErr    error
	}{
		{"empty string", "", secrets.ErrInvalidCiphertext},
		{"invalid base64", "not-base64!@#$", secrets.ErrInvalidCiphertext},
		{"too short ciphertext", "AA==", secrets.ErrInvalidCiphertext},
		{"tampered tag", base64.StdEncoding.EncodeToString(tampered), secrets.ErrDecryptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := secrets.DecryptString(key, "totpKey", tt.ciphertext, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()
	keys := make(map[string]bool)

	for range 10 {
		key, err := secrets.GenerateKey()
		require.NoError(t, err)
		require.Len(t, key, secrets.KeySize)

		require.False(t, keys[string(key)], "Generated duplicate key")
		keys[string(key)] = true
	}
}
