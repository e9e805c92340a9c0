// Package bridgecrypto converts shared OTP items between their decrypted
// view and their stored record, using the symmetric key both applications
// keep in the shared access group.
//
// Each sensitive field (TOTP key, username, account domain, account email)
// is sealed separately with secrets.EncryptString under a field-bound subkey,
// with the item ID as associated data, so a ciphertext copied into another
// field or another record fails to decrypt.
// ID, name and favorite flag stay in plaintext.
//
// Encrypt is all-or-nothing. Decrypt is best-effort: a record that fails to
// decrypt is dropped and reported to the configured logger.Reporter, so one
// damaged item never hides the rest of the list. When some records fail, the
// key is read again once, in case the other application replaced it since
// the batch started, and the failed records are retried with the new key.
package bridgecrypto
