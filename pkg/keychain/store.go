package keychain

import (
	"context"
	"errors"
	"strings"
)

// Backend performs single atomic operations on keychain items.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, item Item) ([]byte, error)

	// Put inserts or replaces the value of item.
	Put(ctx context.Context, item Item, value []byte) error

	// Delete removes item. Deleting a missing item is not an error.
	Delete(ctx context.Context, item Item) error
}

// Creator is implemented by backends that can atomically store a value only
// when the item does not exist yet.
type Creator interface {
	// Create stores value and returns true, or returns false without writing
	// when item already exists.
	Create(ctx context.Context, item Item, value []byte) (bool, error)
}

// Store reads and writes typed keys in one shared access group.
type Store struct {
	backend     Backend
	accessGroup string
}

// NewStore creates a store scoped to accessGroup.
func NewStore(backend Backend, accessGroup string) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if strings.TrimSpace(accessGroup) == "" {
		return nil, ErrMissingAccessGroup
	}
	return &Store{backend: backend, accessGroup: accessGroup}, nil
}

// AccessGroup returns the access group the store is scoped to.
func (s *Store) AccessGroup() string {
	return s.accessGroup
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key Key) ([]byte, error) {
	item, err := s.item(key)
	if err != nil {
		return nil, err
	}

	value, err := s.backend.Get(ctx, item)
	if err != nil {
		return nil, wrap("get", item, err)
	}
	if len(value) == 0 {
		return nil, ErrUnexpectedData
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key Key, value []byte) error {
	item, err := s.item(key)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}

	if err := s.backend.Put(ctx, item, value); err != nil {
		return wrap("set", item, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key Key) error {
	item, err := s.item(key)
	if err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, item); err != nil {
		return wrap("delete", item, err)
	}
	return nil
}

// Create stores value under key only if nothing is stored there yet.
// It returns ErrCreateNotSupported when the backend has no atomic
// create-if-absent primitive.
func (s *Store) Create(ctx context.Context, key Key, value []byte) (bool, error) {
	item, err := s.item(key)
	if err != nil {
		return false, err
	}
	if len(value) == 0 {
		return false, ErrEmptyValue
	}

	creator, ok := s.backend.(Creator)
	if !ok {
		return false, ErrCreateNotSupported
	}

	created, err := creator.Create(ctx, item, value)
	if err != nil {
		return false, wrap("create", item, err)
	}
	return created, nil
}

func (s *Store) item(key Key) (Item, error) {
	if !key.Valid() {
		return Item{}, ErrInvalidKey
	}
	return Item{
		Class:       ClassGenericPassword,
		AccessGroup: s.accessGroup,
		Accessible:  AccessibleAfterFirstUnlockThisDeviceOnly,
		Account:     key.Account(),
	}, nil
}

func wrap(op string, item Item, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return StatusError{Op: op, Account: item.Account, Err: err}
}
