package itemsync

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/otpbridge/pkg/item"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]item.Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]item.Record)}
}

func (s *MemoryStore) FetchAll(_ context.Context, userID string) ([]item.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := slices.Collect(maps.Values(s.users[userID]))
	slices.SortFunc(records, compareRecords)
	if records == nil {
		records = []item.Record{}
	}
	return records, nil
}

func (s *MemoryStore) ReplaceAll(_ context.Context, userID string, records []item.Record) error {
	set := make(map[string]item.Record, len(records))
	for _, r := range records {
		r.UserID = userID
		set[r.ID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(set) == 0 {
		delete(s.users, userID)
		return nil
	}
	s.users[userID] = set
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, userID string, records ...item.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.users[userID]
	if !ok {
		set = make(map[string]item.Record, len(records))
		s.users[userID] = set
	}
	for _, r := range records {
		r.UserID = userID
		set[r.ID] = r
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users[userID], id)
	if len(s.users[userID]) == 0 {
		delete(s.users, userID)
	}
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}
