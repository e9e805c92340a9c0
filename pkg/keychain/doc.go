// Package keychain provides typed key/value storage over a shared secure
// keychain access group.
//
// Two applications on the same device (the password manager and the
// authenticator) read and write the same entries through it. Every entry is
// addressed by a Key, which formats deterministically into the keychain
// "account" attribute, so both processes agree on where a value lives without
// any coordination.
//
// # Architecture
//
// A Store turns a Key into an Item (generic-password class, the configured
// access group, after-first-unlock-this-device-only protection and the
// formatted account) and performs exactly one Backend call per operation:
//
//   - MemoryBackend  – in-process map, used by tests and single-process setups.
//   - FileBackend    – one directory per access group on the device; writes are
//     atomic renames and create-if-absent is serialized with an advisory file
//     lock, so separate processes can share it.
//   - RedisBackend   – a Redis database shared by both processes; create-if-absent
//     maps onto SETNX.
//
// There is no in-process lock around multi-step sequences. Each operation is a
// single atomic read or write on the backend and consumers must tolerate
// eventual visibility of the other process's writes.
//
// # Usage
//
//	backend := keychain.NewMemoryBackend()
//	store, err := keychain.NewStore(backend, "group.com.example.otpbridge")
//	if err != nil {
//		// handle error
//	}
//
//	err = store.Set(ctx, keychain.SymmetricKey(), key)
//	value, err := store.Get(ctx, keychain.SymmetricKey())
//	if errors.Is(err, keychain.ErrNotFound) {
//		// nothing stored yet
//	}
//
// # Error Handling
//
// A missing entry is reported as ErrNotFound. Malformed stored data is
// ErrUnexpectedData. Any other backend failure is wrapped in StatusError
// carrying the operation and account; inspect it with errors.As. Operations
// are never retried.
package keychain
