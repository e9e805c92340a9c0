package itemsync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/dmitrymomot/otpbridge/pkg/broadcast"
	"github.com/dmitrymomot/otpbridge/pkg/item"
	"github.com/dmitrymomot/otpbridge/pkg/logger"
)

// TemporaryUserID owns the single staging slot used to hand one item from
// one application to the other.
const TemporaryUserID = "000000000000"

// Cryptography seals and opens records. bridgecrypto.Service implements it.
type Cryptography interface {
	Encrypt(ctx context.Context, views []item.View) ([]item.Record, error)
	Decrypt(ctx context.Context, records []item.Record) ([]item.View, error)
}

// KeyReader reads the shared key without creating it.
// sharedkeys.Repository implements it.
type KeyReader interface {
	GetSymmetricKey(ctx context.Context) ([]byte, error)
}

// Service stores shared items per user and feeds decrypted lists to
// subscribers.
type Service struct {
	store      Store
	crypto     Cryptography
	keys       KeyReader
	feedBuffer int
	logger     *slog.Logger

	mu      sync.Mutex
	feeds   map[string]*broadcast.MemoryBroadcaster[[]item.View]
	writers map[string]*sync.Mutex
	closed  bool
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFeedBuffer sets how many undelivered lists a feed subscriber may hold
// before the oldest is dropped.
func WithFeedBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.feedBuffer = n
		}
	}
}

func NewService(store Store, crypto Cryptography, keys KeyReader, opts ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, ErrNilStore
	case crypto == nil:
		return nil, ErrNilCryptography
	case keys == nil:
		return nil, ErrNilKeyReader
	}

	s := &Service{
		store:      store,
		crypto:     crypto,
		keys:       keys,
		feedBuffer: 1,
		logger:     slog.Default(),
		feeds:      make(map[string]*broadcast.MemoryBroadcaster[[]item.View]),
		writers:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("itemsync"))
	return s, nil
}

// IsSyncEnabled reports whether the shared key exists, which is the signal
// that the password manager has turned syncing on.
func (s *Service) IsSyncEnabled(ctx context.Context) bool {
	_, err := s.keys.GetSymmetricKey(ctx)
	return err == nil
}

// FetchAll returns the decrypted items of userID. Records that fail to
// decrypt are left out.
func (s *Service) FetchAll(ctx context.Context, userID string) ([]item.View, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.fetch(ctx, userID)
}

// ReplaceAll makes views the complete item set of userID.
func (s *Service) ReplaceAll(ctx context.Context, views []item.View, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	records, err := s.crypto.Encrypt(ctx, views)
	if err != nil {
		return errors.Join(ErrReplaceFailed, err)
	}

	defer s.lockUser(userID)()
	if err := s.store.ReplaceAll(ctx, userID, records); err != nil {
		return errors.Join(ErrReplaceFailed, err)
	}

	s.logger.DebugContext(ctx, "items replaced", logger.UserID(userID), logger.Count(len(records)))
	s.publish(ctx, userID)
	return nil
}

// UpsertOne inserts view or overwrites the item with the same id.
func (s *Service) UpsertOne(ctx context.Context, view item.View, userID string) error {
	return s.InsertItems(ctx, []item.View{view}, userID)
}

// InsertItems adds views to the set of userID, overwriting items with the
// same id.
func (s *Service) InsertItems(ctx context.Context, views []item.View, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if len(views) == 0 {
		return nil
	}
	for _, v := range views {
		if v.ID == "" {
			return ErrEmptyItemID
		}
	}

	records, err := s.crypto.Encrypt(ctx, views)
	if err != nil {
		return errors.Join(ErrUpsertFailed, err)
	}

	defer s.lockUser(userID)()
	if err := s.store.Upsert(ctx, userID, records...); err != nil {
		return errors.Join(ErrUpsertFailed, err)
	}

	s.publish(ctx, userID)
	return nil
}

func (s *Service) DeleteOne(ctx context.Context, id, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyItemID
	}

	defer s.lockUser(userID)()
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}

	s.publish(ctx, userID)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	defer s.lockUser(userID)()
	if err := s.store.DeleteAll(ctx, userID); err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}

	s.publish(ctx, userID)
	return nil
}

// InsertTemporaryItem puts view in the staging slot, replacing whatever
// was there.
func (s *Service) InsertTemporaryItem(ctx context.Context, view item.View) error {
	records, err := s.crypto.Encrypt(ctx, []item.View{view})
	if err != nil {
		return errors.Join(ErrReplaceFailed, err)
	}

	defer s.lockUser(TemporaryUserID)()
	if err := s.store.ReplaceAll(ctx, TemporaryUserID, records); err != nil {
		return errors.Join(ErrReplaceFailed, err)
	}
	return nil
}

// FetchTemporaryItem takes the item out of the staging slot. It returns nil
// when the slot is empty. The slot is emptied even if its item cannot be
// decrypted.
func (s *Service) FetchTemporaryItem(ctx context.Context) (*item.View, error) {
	defer s.lockUser(TemporaryUserID)()

	views, err := s.fetch(ctx, TemporaryUserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteAll(ctx, TemporaryUserID); err != nil {
		return nil, errors.Join(ErrDeleteFailed, err)
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

// Feed subscribes to the decrypted item list of userID. The current list
// is delivered first, then every list written through this service or
// reloaded by Refresh. The subscription lasts until ctx is done or the
// service is closed.
func (s *Service) Feed(ctx context.Context, userID string) (broadcast.Subscriber[[]item.View], error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	feed, ok := s.feeds[userID]
	if !ok {
		feed = broadcast.NewMemoryBroadcaster[[]item.View](s.feedBuffer, broadcast.WithReplay())
		s.feeds[userID] = feed
	}
	s.mu.Unlock()

	if !ok {
		unlock := s.lockUser(userID)
		views, err := s.fetch(ctx, userID)
		if err != nil {
			unlock()
			s.dropFeed(userID, feed)
			return nil, err
		}
		// A write may have published a newer list in the meantime.
		if _, seen := feed.Last(); !seen {
			_ = feed.Broadcast(ctx, broadcast.Message[[]item.View]{Data: views})
		}
		unlock()
	}

	return feed.Subscribe(ctx), nil
}

// Refresh reloads the items of userID and pushes them to its feed. Writes
// made by the other application only reach subscribers this way.
func (s *Service) Refresh(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	feed := s.feed(userID)
	if feed == nil {
		return nil
	}

	defer s.lockUser(userID)()
	views, err := s.fetch(ctx, userID)
	if err != nil {
		return err
	}
	return feed.Broadcast(ctx, broadcast.Message[[]item.View]{Data: views})
}

// Close ends every feed. Store operations keep working.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	feeds := s.feeds
	s.feeds = make(map[string]*broadcast.MemoryBroadcaster[[]item.View])
	s.mu.Unlock()

	var errs []error
	for _, feed := range feeds {
		errs = append(errs, feed.Close())
	}
	return errors.Join(errs...)
}

func (s *Service) fetch(ctx context.Context, userID string) ([]item.View, error) {
	records, err := s.store.FetchAll(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, err)
	}
	views, err := s.crypto.Decrypt(ctx, records)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, err)
	}
	return views, nil
}

// publish pushes the stored list of userID to its feed, if anyone has
// subscribed. The write already succeeded, so failures are only logged.
// Callers hold the user's write lock, so lists reach the feed in the order
// the writes were made.
func (s *Service) publish(ctx context.Context, userID string) {
	feed := s.feed(userID)
	if feed == nil {
		return
	}
	views, err := s.fetch(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish items", logger.UserID(userID), logger.Error(err))
		return
	}
	_ = feed.Broadcast(ctx, broadcast.Message[[]item.View]{Data: views})
}

// lockUser serializes writes and feed publishing for one user and returns
// the unlock function.
func (s *Service) lockUser(userID string) func() {
	s.mu.Lock()
	l, ok := s.writers[userID]
	if !ok {
		l = &sync.Mutex{}
		s.writers[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) feed(userID string) *broadcast.MemoryBroadcaster[[]item.View] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[userID]
}

func (s *Service) dropFeed(userID string, feed *broadcast.MemoryBroadcaster[[]item.View]) {
	s.mu.Lock()
	if s.feeds[userID] == feed {
		delete(s.feeds, userID)
	}
	s.mu.Unlock()
	_ = feed.Close()
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}
	return nil
}
