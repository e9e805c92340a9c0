package itemsync_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/otpbridge/pkg/bridgecrypto"
	"github.com/dmitrymomot/otpbridge/pkg/broadcast"
	"github.com/dmitrymomot/otpbridge/pkg/item"
	"github.com/dmitrymomot/otpbridge/pkg/itemsync"
	"github.com/dmitrymomot/otpbridge/pkg/keychain"
	"github.com/dmitrymomot/otpbridge/pkg/sharedkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const userID = "user-1"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FetchAll(ctx context.Context, userID string) ([]item.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]item.Record), args.Error(1)
}

func (m *MockStore) ReplaceAll(ctx context.Context, userID string, records []item.Record) error {
	return m.Called(ctx, userID, records).Error(0)
}

func (m *MockStore) Upsert(ctx context.Context, userID string, records ...item.Record) error {
	return m.Called(ctx, userID, records).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockStore) DeleteAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type fixture struct {
	keys   *sharedkeys.Repository
	crypto *bridgecrypto.Service
	store  *itemsync.MemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	kc, err := keychain.NewStore(keychain.NewMemoryBackend(), "group.com.example.otpbridge")
	require.NoError(t, err)
	keys, err := sharedkeys.NewRepository(kc)
	require.NoError(t, err)
	crypto, err := bridgecrypto.NewService(keys, bridgecrypto.WithLogger(discardLogger()))
	require.NoError(t, err)
	return fixture{keys: keys, crypto: crypto, store: itemsync.NewMemoryStore()}
}

// service builds a Service over the fixture; two services built from one
// fixture behave like the two applications sharing a device.
func (f fixture) service(t *testing.T) *itemsync.Service {
	t.Helper()
	svc, err := itemsync.NewService(f.store, f.crypto, f.keys, itemsync.WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func view(id, name string) item.View {
	return item.View{
		ID:       id,
		Name:     name,
		TOTPKey:  "otpauth://totp/" + name + "?secret=JBSWY3DPEHPK3PXP",
		Username: name + "@example.com",
	}
}

func receive(t *testing.T, sub broadcast.Subscriber[[]item.View]) []item.View {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive(context.Background()):
		require.True(t, ok, "feed closed")
		return msg.Data
	case <-time.After(time.Second):
		t.Fatal("no list received")
		return nil
	}
}

func assertNoList(t *testing.T, sub broadcast.Subscriber[[]item.View]) {
	t.Helper()
	select {
	case msg := <-sub.Receive(context.Background()):
		t.Fatalf("unexpected list: %v", msg.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewService(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := itemsync.NewService(nil, f.crypto, f.keys)
	assert.ErrorIs(t, err, itemsync.ErrNilStore)
	_, err = itemsync.NewService(f.store, nil, f.keys)
	assert.ErrorIs(t, err, itemsync.ErrNilCryptography)
	_, err = itemsync.NewService(f.store, f.crypto, nil)
	assert.ErrorIs(t, err, itemsync.ErrNilKeyReader)
}

func TestService_ReplaceAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t)

	assert.False(t, svc.IsSyncEnabled(ctx))

	require.NoError(t, svc.ReplaceAll(ctx, []item.View{view("1", "github"), view("2", "aws")}, userID))
	assert.True(t, svc.IsSyncEnabled(ctx))

	views, err := svc.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []item.View{view("2", "aws"), view("1", "github")}, views)

	require.NoError(t, svc.ReplaceAll(ctx, []item.View{view("3", "gitlab")}, userID))
	views, err = svc.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []item.View{view("3", "gitlab")}, views)

	records, err := f.store.FetchAll(ctx, userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "gitlab", records[0].Name)
	assert.NotContains(t, records[0].TOTPKey, "JBSWY3DPEHPK3PXP")
	assert.NotEqual(t, "gitlab@example.com", records[0].Username)
}

func TestService_ItemOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newFixture(t).service(t)

	require.NoError(t, svc.InsertItems(ctx, []item.View{view("1", "a"), view("2", "b")}, userID))

	changed := view("1", "a")
	changed.Favorite = true
	changed.AccountDomain = "example.com"
	require.NoError(t, svc.UpsertOne(ctx, changed, userID))
	require.NoError(t, svc.UpsertOne(ctx, view("3", "c"), userID))

	views, err := svc.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []item.View{changed, view("2", "b"), view("3", "c")}, views)

	require.NoError(t, svc.DeleteOne(ctx, "2", userID))
	views, err = svc.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	require.NoError(t, svc.DeleteAll(ctx, userID))
	views, err = svc.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, views)

	assert.ErrorIs(t, svc.UpsertOne(ctx, item.View{Name: "no id"}, userID), itemsync.ErrEmptyItemID)
	assert.ErrorIs(t, svc.DeleteOne(ctx, "", userID), itemsync.ErrEmptyItemID)
	assert.NoError(t, svc.InsertItems(ctx, nil, userID))
}

func TestService_EmptyUserID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newFixture(t).service(t)

	_, err := svc.FetchAll(ctx, "")
	assert.ErrorIs(t, err, itemsync.ErrEmptyUserID)
	assert.ErrorIs(t, svc.ReplaceAll(ctx, nil, " "), itemsync.ErrEmptyUserID)
	assert.ErrorIs(t, svc.InsertItems(ctx, []item.View{view("1", "a")}, ""), itemsync.ErrEmptyUserID)
	assert.ErrorIs(t, svc.DeleteOne(ctx, "1", ""), itemsync.ErrEmptyUserID)
	assert.ErrorIs(t, svc.DeleteAll(ctx, ""), itemsync.ErrEmptyUserID)
	assert.ErrorIs(t, svc.Refresh(ctx, ""), itemsync.ErrEmptyUserID)
	_, err = svc.Feed(ctx, "")
	assert.ErrorIs(t, err, itemsync.ErrEmptyUserID)
}

func TestService_TemporaryItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	pm := f.service(t)
	authenticator := f.service(t)

	got, err := authenticator.FetchTemporaryItem(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, pm.InsertTemporaryItem(ctx, view("1", "first")))
	require.NoError(t, pm.InsertTemporaryItem(ctx, view("2", "second")))

	got, err = authenticator.FetchTemporaryItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, view("2", "second"), *got)

	got, err = authenticator.FetchTemporaryItem(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	views, err := authenticator.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestService_Feed(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t)
	pm := f.service(t)
	authenticator := f.service(t)

	require.NoError(t, pm.ReplaceAll(ctx, []item.View{view("1", "a")}, userID))

	sub, err := authenticator.Feed(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []item.View{view("1", "a")}, receive(t, sub))

	late, err := authenticator.Feed(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []item.View{view("1", "a")}, receive(t, late), "latest list is replayed")

	t.Run("own writes are pushed", func(t *testing.T) {
		require.NoError(t, authenticator.UpsertOne(ctx, view("2", "b"), userID))
		assert.Equal(t, []item.View{view("1", "a"), view("2", "b")}, receive(t, sub))
		assert.Len(t, receive(t, late), 2)
	})

	t.Run("other process writes need a refresh", func(t *testing.T) {
		require.NoError(t, pm.DeleteAll(ctx, userID))
		assertNoList(t, sub)

		require.NoError(t, authenticator.Refresh(ctx, userID))
		assert.Empty(t, receive(t, sub))
	})

	t.Run("other users are not delivered", func(t *testing.T) {
		require.NoError(t, authenticator.ReplaceAll(ctx, []item.View{view("9", "z")}, "user-2"))
		assertNoList(t, sub)
	})

	require.NoError(t, authenticator.Close())
	_, ok := <-sub.Receive(ctx)
	assert.False(t, ok, "feed ends on close")

	_, err = authenticator.Feed(ctx, userID)
	assert.ErrorIs(t, err, itemsync.ErrServiceClosed)
	assert.NoError(t, authenticator.Close())
}

// pausingStore holds the first FetchAll after arming until release is
// closed, after the records have been read.
type pausingStore struct {
	*itemsync.MemoryStore
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func (s *pausingStore) FetchAll(ctx context.Context, userID string) ([]item.Record, error) {
	records, err := s.MemoryStore.FetchAll(ctx, userID)
	if s.armed.CompareAndSwap(true, false) {
		close(s.reached)
		<-s.release
	}
	return records, err
}

func TestService_FeedFollowsWriteOrder(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t)
	store := &pausingStore{
		MemoryStore: itemsync.NewMemoryStore(),
		reached:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	svc, err := itemsync.NewService(store, f.crypto, f.keys, itemsync.WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	sub, err := svc.Feed(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, receive(t, sub))

	store.armed.Store(true)
	upserted := make(chan error, 1)
	go func() { upserted <- svc.UpsertOne(ctx, view("1", "a"), userID) }()
	<-store.reached

	deleted := make(chan error, 1)
	go func() { deleted <- svc.DeleteOne(ctx, "1", userID) }()

	select {
	case <-deleted:
		t.Fatal("delete finished while the upsert was still publishing")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	require.NoError(t, <-upserted)
	require.NoError(t, <-deleted)

	records, err := store.FetchAll(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, records)

	late, err := svc.Feed(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, receive(t, late), "latest list matches the store")
}

func TestService_RefreshWithoutFeed(t *testing.T) {
	t.Parallel()
	svc := newFixture(t).service(t)
	assert.NoError(t, svc.Refresh(context.Background(), userID))
}

func TestService_StoreFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	boom := errors.New("disk full")

	store := new(MockStore)
	store.On("FetchAll", mock.Anything, userID).Return(nil, boom)
	store.On("ReplaceAll", mock.Anything, userID, mock.Anything).Return(boom)
	store.On("Upsert", mock.Anything, userID, mock.Anything).Return(boom)
	store.On("Delete", mock.Anything, userID, "1").Return(boom)
	store.On("DeleteAll", mock.Anything, userID).Return(boom)

	svc, err := itemsync.NewService(store, f.crypto, f.keys, itemsync.WithLogger(discardLogger()))
	require.NoError(t, err)

	_, err = svc.FetchAll(ctx, userID)
	assert.ErrorIs(t, err, itemsync.ErrFetchFailed)
	assert.ErrorIs(t, err, boom)

	err = svc.ReplaceAll(ctx, []item.View{view("1", "a")}, userID)
	assert.ErrorIs(t, err, itemsync.ErrReplaceFailed)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, svc.UpsertOne(ctx, view("1", "a"), userID), itemsync.ErrUpsertFailed)
	assert.ErrorIs(t, svc.DeleteOne(ctx, "1", userID), itemsync.ErrDeleteFailed)
	assert.ErrorIs(t, svc.DeleteAll(ctx, userID), itemsync.ErrDeleteFailed)

	_, err = svc.Feed(ctx, userID)
	assert.ErrorIs(t, err, itemsync.ErrFetchFailed)

	store.AssertExpectations(t)
}
