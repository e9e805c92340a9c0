package sharedkeys

import "errors"

var (
	ErrNilStore          = errors.New("sharedkeys: keychain store is nil")
	ErrInvalidKeyLength  = errors.New("sharedkeys: symmetric key must be 32 bytes")
	ErrInvalidPolicy     = errors.New("sharedkeys: invalid timeout policy")
	ErrMalformedTime     = errors.New("sharedkeys: malformed last active time")
	ErrMalformedPolicy   = errors.New("sharedkeys: malformed timeout policy")
	ErrKeyGenerateFailed = errors.New("sharedkeys: failed to generate symmetric key")
)
