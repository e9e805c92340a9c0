// Package secrets encrypts individual record fields with a shared 256-bit key.
//
// Every field is sealed with its own subkey. The subkey is derived from the
// shared key with HKDF-SHA-256, using the field label as context, so the same
// plaintext stored in two different fields never produces related ciphertext
// and a ciphertext moved into another field fails authentication.
//
// Subkeys are used with AES-256 in GCM mode. The random nonce is prepended to
// the sealed data, so a ciphertext is self-contained: nonce || data || tag.
// Callers pass associated data, such as the owning record's id, which is
// authenticated but not stored; a ciphertext copied into another record then
// fails to open.
//
// # Usage
//
//	import "github.com/dmitrymomot/otpbridge/pkg/secrets"
//
//	key, _ := secrets.GenerateKey()
//
//	ct, err := secrets.EncryptString(key, "totpKey", "JBSWY3DPEHPK3PXP", []byte(itemID))
//	if err != nil {
//	    // handle error
//	}
//
//	plain, err := secrets.DecryptString(key, "totpKey", ct, []byte(itemID))
//	if err != nil {
//	    // handle error
//	}
//
// # Error Handling
//
// All public functions return errors that wrap a sentinel package error such
// as ErrEncryptionFailed or ErrInvalidCiphertext. Use errors.Is to match them.
package secrets
