package keychain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("keychain: item not found")
	ErrUnexpectedData     = errors.New("keychain: unexpected item data")
	ErrInvalidKey         = errors.New("keychain: invalid key")
	ErrEmptyValue         = errors.New("keychain: empty value")
	ErrMissingAccessGroup = errors.New("keychain: missing access group")
	ErrNilBackend         = errors.New("keychain: backend is nil")
	ErrCreateNotSupported = errors.New("keychain: backend does not support create-if-absent")

	ErrFailedToParseRedisURL = errors.New("keychain: failed to parse redis connection string")
	ErrRedisNotReady         = errors.New("keychain: redis did not become ready within the given time period")
)

// StatusError wraps a backend failure other than a missing item.
type StatusError struct {
	Op      string
	Account string
	Err     error
}

func (e StatusError) Error() string {
	return fmt.Sprintf("keychain: %s %q failed: %v", e.Op, e.Account, e.Err)
}

func (e StatusError) Unwrap() error {
	return e.Err
}
