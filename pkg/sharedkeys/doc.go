// Package sharedkeys exposes typed accessors for the entries both
// applications keep in the shared keychain access group: the symmetric key
// used to encrypt shared OTP items, and per (application, user) session
// bookkeeping (last active time and timeout policy).
//
// Values are encoded here and stored through keychain.Store, so the encoding
// must stay identical in both applications:
//
//   - symmetric key: the raw 32 key bytes
//   - last active time: RFC 3339 text with nanoseconds, in UTC
//   - timeout policy: JSON, see TimeoutPolicy
//
// GetOrCreateSymmetricKey uses the backend's create-if-absent primitive when
// it has one, so two processes racing to create the first key converge on
// the same bytes. Backends without it fall back to last-writer-wins.
package sharedkeys
