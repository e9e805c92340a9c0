package refresh

import "errors"

var (
	// ErrNilCallback is returned when a scheduler is created without an expiration callback.
	ErrNilCallback = errors.New("refresh: expiration callback cannot be nil")
)
