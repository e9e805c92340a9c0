package sharedkeys

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrymomot/otpbridge/pkg/keychain"
	"github.com/dmitrymomot/otpbridge/pkg/secrets"
)

// Repository reads and writes the typed entries of the shared access group.
// It keeps no state of its own; every call goes to the keychain store.
type Repository struct {
	store  *keychain.Store
	keygen func() ([]byte, error)
}

// Option configures a Repository.
type Option func(*Repository)

// WithKeyGenerator replaces the CSPRNG used to create the symmetric key.
func WithKeyGenerator(fn func() ([]byte, error)) Option {
	return func(r *Repository) {
		if fn != nil {
			r.keygen = fn
		}
	}
}

// NewRepository creates a repository on top of store.
func NewRepository(store *keychain.Store, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	r := &Repository{store: store, keygen: secrets.GenerateKey}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetSymmetricKey returns the shared key, or keychain.ErrNotFound when none
// was created yet.
func (r *Repository) GetSymmetricKey(ctx context.Context) ([]byte, error) {
	key, err := r.store.Get(ctx, keychain.SymmetricKey())
	if err != nil {
		return nil, err
	}
	if len(key) != secrets.KeySize {
		return nil, errors.Join(keychain.ErrUnexpectedData, ErrInvalidKeyLength)
	}
	return key, nil
}

// SetSymmetricKey stores key, replacing any existing one. Data encrypted
// under the previous key becomes unreadable.
func (r *Repository) SetSymmetricKey(ctx context.Context, key []byte) error {
	if len(key) != secrets.KeySize {
		return ErrInvalidKeyLength
	}
	return r.store.Set(ctx, keychain.SymmetricKey(), key)
}

// DeleteSymmetricKey removes the shared key. Used when sync is turned off.
func (r *Repository) DeleteSymmetricKey(ctx context.Context) error {
	return r.store.Delete(ctx, keychain.SymmetricKey())
}

// GetOrCreateSymmetricKey returns the shared key, generating and storing a
// new random one when the access group has none yet.
func (r *Repository) GetOrCreateSymmetricKey(ctx context.Context) ([]byte, error) {
	key, err := r.GetSymmetricKey(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, keychain.ErrNotFound) {
		return nil, err
	}

	fresh, err := r.keygen()
	if err != nil {
		return nil, errors.Join(ErrKeyGenerateFailed, err)
	}
	if len(fresh) != secrets.KeySize {
		return nil, errors.Join(ErrKeyGenerateFailed, ErrInvalidKeyLength)
	}

	created, err := r.store.Create(ctx, keychain.SymmetricKey(), fresh)
	switch {
	case errors.Is(err, keychain.ErrCreateNotSupported):
		// Last writer wins.
		if err := r.store.Set(ctx, keychain.SymmetricKey(), fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	case err != nil:
		return nil, err
	case created:
		return fresh, nil
	}

	// Another process created the key between our read and create.
	return r.GetSymmetricKey(ctx)
}

// GetLastActiveTime returns the stored last activity of userID in app.
func (r *Repository) GetLastActiveTime(ctx context.Context, app keychain.Application, userID string) (time.Time, error) {
	raw, err := r.store.Get(ctx, keychain.LastActiveTime(app, userID))
	if err != nil {
		return time.Time{}, err
	}

	var t time.Time
	if err := t.UnmarshalText(raw); err != nil {
		return time.Time{}, errors.Join(keychain.ErrUnexpectedData, ErrMalformedTime, err)
	}
	return t, nil
}

// SetLastActiveTime stores t as the last activity of userID in app.
func (r *Repository) SetLastActiveTime(ctx context.Context, app keychain.Application, userID string, t time.Time) error {
	raw, err := t.UTC().MarshalText()
	if err != nil {
		return errors.Join(ErrMalformedTime, err)
	}
	return r.store.Set(ctx, keychain.LastActiveTime(app, userID), raw)
}

// ClearLastActiveTime removes the last activity entry of userID in app.
func (r *Repository) ClearLastActiveTime(ctx context.Context, app keychain.Application, userID string) error {
	return r.store.Delete(ctx, keychain.LastActiveTime(app, userID))
}

// GetTimeoutPolicy returns the stored timeout policy of userID in app.
func (r *Repository) GetTimeoutPolicy(ctx context.Context, app keychain.Application, userID string) (TimeoutPolicy, error) {
	raw, err := r.store.Get(ctx, keychain.SessionTimeoutPolicy(app, userID))
	if err != nil {
		return TimeoutPolicy{}, err
	}

	var p TimeoutPolicy
	if err := json.Unmarshal(raw, &p); err != nil {
		return TimeoutPolicy{}, errors.Join(keychain.ErrUnexpectedData, ErrMalformedPolicy, err)
	}
	return p, nil
}

// SetTimeoutPolicy stores p as the timeout policy of userID in app.
func (r *Repository) SetTimeoutPolicy(ctx context.Context, app keychain.Application, userID string, p TimeoutPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, keychain.SessionTimeoutPolicy(app, userID), raw)
}

// ClearTimeoutPolicy removes the timeout policy of userID in app.
func (r *Repository) ClearTimeoutPolicy(ctx context.Context, app keychain.Application, userID string) error {
	return r.store.Delete(ctx, keychain.SessionTimeoutPolicy(app, userID))
}
