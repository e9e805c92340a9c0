package itemsync

import "errors"

var (
	ErrNilStore        = errors.New("itemsync: store is nil")
	ErrNilCryptography = errors.New("itemsync: cryptography is nil")
	ErrNilKeyReader    = errors.New("itemsync: key reader is nil")
	ErrEmptyUserID     = errors.New("itemsync: user id is empty")
	ErrEmptyItemID     = errors.New("itemsync: item id is empty")
	ErrServiceClosed   = errors.New("itemsync: service is closed")

	ErrFetchFailed   = errors.New("itemsync: failed to fetch items")
	ErrReplaceFailed = errors.New("itemsync: failed to replace items")
	ErrUpsertFailed  = errors.New("itemsync: failed to upsert items")
	ErrDeleteFailed  = errors.New("itemsync: failed to delete items")
)
