package sessiontimeout

import "errors"

var (
	ErrAccountNotFound = errors.New("sessiontimeout: no timeout stored for account")
	ErrNilRepository   = errors.New("sessiontimeout: repository is nil")
	ErrEmptyUserID     = errors.New("sessiontimeout: user id is empty")
)
