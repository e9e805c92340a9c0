package keychain_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrymomot/otpbridge/pkg/keychain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const accessGroup = "group.com.example.otpbridge"

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Get(ctx context.Context, item keychain.Item) ([]byte, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) Put(ctx context.Context, item keychain.Item, value []byte) error {
	args := m.Called(ctx, item, value)
	return args.Error(0)
}

func (m *MockBackend) Delete(ctx context.Context, item keychain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func backends(t *testing.T) map[string]func() keychain.Backend {
	t.Helper()
	return map[string]func() keychain.Backend{
		"memory": func() keychain.Backend { return keychain.NewMemoryBackend() },
		"file": func() keychain.Backend {
			b, err := keychain.NewFileBackend(t.TempDir())
			require.NoError(t, err)
			return b
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	_, err := keychain.NewStore(nil, accessGroup)
	assert.ErrorIs(t, err, keychain.ErrNilBackend)

	_, err = keychain.NewStore(keychain.NewMemoryBackend(), "  ")
	assert.ErrorIs(t, err, keychain.ErrMissingAccessGroup)

	store, err := keychain.NewStore(keychain.NewMemoryBackend(), accessGroup)
	require.NoError(t, err)
	assert.Equal(t, accessGroup, store.AccessGroup())
}

func TestStore_Operations(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := keychain.NewStore(newBackend(), accessGroup)
			require.NoError(t, err)

			key := keychain.LastActiveTime(keychain.Authenticator, "user-1")

			t.Run("get missing returns not found", func(t *testing.T) {
				_, err := store.Get(ctx, key)
				assert.ErrorIs(t, err, keychain.ErrNotFound)
			})

			t.Run("set then get", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, key, []byte("first")))
				value, err := store.Get(ctx, key)
				require.NoError(t, err)
				assert.Equal(t, []byte("first"), value)
			})

			t.Run("set replaces", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, key, []byte("second")))
				value, err := store.Get(ctx, key)
				require.NoError(t, err)
				assert.Equal(t, []byte("second"), value)
			})

			t.Run("delete removes and is idempotent", func(t *testing.T) {
				require.NoError(t, store.Delete(ctx, key))
				require.NoError(t, store.Delete(ctx, key))
				_, err := store.Get(ctx, key)
				assert.ErrorIs(t, err, keychain.ErrNotFound)
			})

			t.Run("create if absent", func(t *testing.T) {
				created, err := store.Create(ctx, keychain.SymmetricKey(), []byte("winner"))
				require.NoError(t, err)
				assert.True(t, created)

				created, err = store.Create(ctx, keychain.SymmetricKey(), []byte("loser"))
				require.NoError(t, err)
				assert.False(t, created)

				value, err := store.Get(ctx, keychain.SymmetricKey())
				require.NoError(t, err)
				assert.Equal(t, []byte("winner"), value)
			})

			t.Run("invalid key", func(t *testing.T) {
				_, err := store.Get(ctx, keychain.Key{})
				assert.ErrorIs(t, err, keychain.ErrInvalidKey)
				assert.ErrorIs(t, store.Set(ctx, keychain.Key{}, []byte("x")), keychain.ErrInvalidKey)
			})

			t.Run("empty value", func(t *testing.T) {
				assert.ErrorIs(t, store.Set(ctx, key, nil), keychain.ErrEmptyValue)
			})
		})
	}
}

func TestStore_SharedAccessGroup(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			backend := newBackend()

			pm, err := keychain.NewStore(backend, accessGroup)
			require.NoError(t, err)
			authenticator, err := keychain.NewStore(backend, accessGroup)
			require.NoError(t, err)
			other, err := keychain.NewStore(backend, "group.com.example.other")
			require.NoError(t, err)

			require.NoError(t, pm.Set(ctx, keychain.SymmetricKey(), []byte("shared")))

			value, err := authenticator.Get(ctx, keychain.SymmetricKey())
			require.NoError(t, err)
			assert.Equal(t, []byte("shared"), value)

			_, err = other.Get(ctx, keychain.SymmetricKey())
			assert.ErrorIs(t, err, keychain.ErrNotFound)
		})
	}
}

func TestStore_ConcurrentCreate(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			backend := newBackend()

			const writers = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				winners int
			)
			for i := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					store, err := keychain.NewStore(backend, accessGroup)
					require.NoError(t, err)
					created, err := store.Create(ctx, keychain.SymmetricKey(), []byte{byte(i + 1)})
					require.NoError(t, err)
					if created {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, winners)
		})
	}
}

func TestStore_BackendFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("device locked")

	backend := new(MockBackend)
	backend.On("Get", mock.Anything, mock.Anything).Return(nil, boom)
	backend.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(boom)
	backend.On("Delete", mock.Anything, mock.Anything).Return(boom)

	store, err := keychain.NewStore(backend, accessGroup)
	require.NoError(t, err)

	key := keychain.SessionTimeoutPolicy(keychain.PasswordManager, "user-1")

	_, err = store.Get(ctx, key)
	var statusErr keychain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "get", statusErr.Op)
	assert.Equal(t, "vaultTimeout_passwordManager_user-1", statusErr.Account)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, keychain.ErrNotFound)

	err = store.Set(ctx, key, []byte("x"))
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "set", statusErr.Op)

	err = store.Delete(ctx, key)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "delete", statusErr.Op)

	_, err = store.Create(ctx, key, []byte("x"))
	assert.ErrorIs(t, err, keychain.ErrCreateNotSupported)
}

func TestStore_QueryAttributes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := new(MockBackend)
	want := keychain.Item{
		Class:       keychain.ClassGenericPassword,
		AccessGroup: accessGroup,
		Accessible:  keychain.AccessibleAfterFirstUnlockThisDeviceOnly,
		Account:     "authenticatorKey",
	}
	backend.On("Get", mock.Anything, want).Return([]byte("key"), nil).Once()
	backend.On("Get", mock.Anything, want).Return([]byte{}, nil).Once()

	store, err := keychain.NewStore(backend, accessGroup)
	require.NoError(t, err)

	value, err := store.Get(ctx, keychain.SymmetricKey())
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), value)

	_, err = store.Get(ctx, keychain.SymmetricKey())
	assert.ErrorIs(t, err, keychain.ErrUnexpectedData)

	backend.AssertExpectations(t)
}
