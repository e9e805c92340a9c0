package totp

import "errors"

var (
	ErrInvalidKeyFormat          = errors.New("totp: invalid key format")
	ErrUnsupportedAlgorithm      = errors.New("totp: unsupported algorithm")
	ErrFailedToGenerateSecretKey = errors.New("totp: failed to generate secret key")
)
