package bridgecrypto

import (
	"errors"
	"fmt"
)

var (
	ErrEncryptFailed  = errors.New("bridgecrypto: encrypt failed")
	ErrDecryptFailed  = errors.New("bridgecrypto: decrypt failed")
	ErrNilKeyProvider = errors.New("bridgecrypto: key provider is nil")
)

// RecordError describes why a single record could not be decrypted.
type RecordError struct {
	ItemID string
	Field  string
	Err    error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("bridgecrypto: record %q field %s: %v", e.ItemID, e.Field, e.Err)
}

func (e RecordError) Unwrap() []error {
	return []error{ErrDecryptFailed, e.Err}
}
