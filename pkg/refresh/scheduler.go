package refresh

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/otpbridge/pkg/logger"
	"github.com/dmitrymomot/otpbridge/pkg/totp"
)

// Item is a displayed item whose code must be kept current.
type Item struct {
	ID  string
	Key totp.Key
}

// Update carries the current code of one item.
type Update struct {
	ID   string
	Code totp.Code
}

// Callback receives every item whose code was recomputed by one timer fire.
type Callback func(updates []Update)

type scheduled struct {
	item  Item
	code  totp.Code
	order int
}

// batch is the set of items sharing one expiry instant.
type batch struct {
	at    time.Time
	ids   map[string]struct{}
	timer Timer
}

// Scheduler recomputes codes when they expire and reports them in batches.
type Scheduler struct {
	mu       sync.Mutex
	items    map[string]*scheduled
	batches  map[int64]*batch
	callback Callback
	clock    Clock
	reporter logger.Reporter
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithReporter sets the sink for keys that fail to generate a code.
func WithReporter(r logger.Reporter) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.reporter = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a scheduler delivering expirations to callback.
func NewScheduler(callback Callback, opts ...Option) (*Scheduler, error) {
	if callback == nil {
		return nil, ErrNilCallback
	}

	s := &Scheduler{
		items:    make(map[string]*scheduled),
		batches:  make(map[int64]*batch),
		callback: callback,
		clock:    SystemClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("refresh"))
	if s.reporter == nil {
		s.reporter = logger.NewReporter(s.logger)
	}

	return s, nil
}

// Configure makes items the scheduled set and returns their current codes in
// the given order. Items absent from the set are unscheduled. Known items
// keep their code while it is still valid. An item whose key cannot produce
// a code is reported and left out.
func (s *Scheduler) Configure(items []Item) []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	wanted := make(map[string]struct{}, len(items))
	for _, it := range items {
		wanted[it.ID] = struct{}{}
	}
	for id := range s.items {
		if _, ok := wanted[id]; !ok {
			s.unschedule(id)
		}
	}

	updates := make([]Update, 0, len(items))
	for i, it := range items {
		if cur, ok := s.items[it.ID]; ok {
			// A late timer can leave an expired code behind; regenerate it.
			if cur.item.Key == it.Key && now.Before(cur.code.ExpiresAt()) {
				cur.order = i
				updates = append(updates, Update{ID: it.ID, Code: cur.code})
				continue
			}
			s.unschedule(it.ID)
		}

		code, err := totp.Generate(it.Key, now)
		if err != nil {
			s.reporter.Report(context.Background(), err, logger.ItemID(it.ID))
			continue
		}
		s.schedule(&scheduled{item: it, code: code, order: i}, now)
		updates = append(updates, Update{ID: it.ID, Code: code})
	}

	s.logger.Debug("refresh set configured",
		logger.Count(len(s.items)),
		slog.Int("timers", len(s.batches)))

	return updates
}

// Cleanup stops every pending timer and forgets all items.
// It may be called any number of times.
func (s *Scheduler) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.batches {
		b.timer.Stop()
		delete(s.batches, key)
	}
	clear(s.items)
}

// Len returns the number of scheduled items.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Timers returns the number of pending timers.
func (s *Scheduler) Timers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// NextExpiration returns the earliest pending expiry.
func (s *Scheduler) NextExpiration() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	for _, b := range s.batches {
		if next.IsZero() || b.at.Before(next) {
			next = b.at
		}
	}
	return next, !next.IsZero()
}

// schedule adds entry to the batch of its code's expiry. Callers hold mu.
func (s *Scheduler) schedule(entry *scheduled, now time.Time) {
	s.items[entry.item.ID] = entry

	at := entry.code.ExpiresAt()
	key := at.UnixNano()
	b, ok := s.batches[key]
	if !ok {
		b = &batch{at: at, ids: make(map[string]struct{})}
		b.timer = s.clock.AfterFunc(at.Sub(now), func() { s.fire(b) })
		s.batches[key] = b
	}
	b.ids[entry.item.ID] = struct{}{}
}

// unschedule removes id and stops its timer once the batch is empty.
// Callers hold mu.
func (s *Scheduler) unschedule(id string) {
	entry, ok := s.items[id]
	if !ok {
		return
	}
	delete(s.items, id)

	key := entry.code.ExpiresAt().UnixNano()
	b, ok := s.batches[key]
	if !ok {
		return
	}
	delete(b.ids, id)
	if len(b.ids) == 0 {
		b.timer.Stop()
		delete(s.batches, key)
	}
}

func (s *Scheduler) fire(b *batch) {
	s.mu.Lock()

	key := b.at.UnixNano()
	if s.batches[key] != b {
		s.mu.Unlock()
		return
	}
	delete(s.batches, key)

	// A timer may fire marginally early; never compute the next code before
	// the old one has expired.
	now := s.clock.Now()
	if now.Before(b.at) {
		now = b.at
	}

	entries := make([]*scheduled, 0, len(b.ids))
	for id := range b.ids {
		if entry, ok := s.items[id]; ok {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b *scheduled) int { return a.order - b.order })

	updates := make([]Update, 0, len(entries))
	for _, entry := range entries {
		delete(s.items, entry.item.ID)
		code, err := totp.Generate(entry.item.Key, now)
		if err != nil {
			s.reporter.Report(context.Background(), err, logger.ItemID(entry.item.ID))
			continue
		}
		entry.code = code
		s.schedule(entry, now)
		updates = append(updates, Update{ID: entry.item.ID, Code: code})
	}
	s.mu.Unlock()

	if len(updates) == 0 {
		return
	}
	s.logger.Debug("codes refreshed", logger.Count(len(updates)), slog.Time("expired_at", b.at))
	s.callback(updates)
}
