package itemsync

import (
	"cmp"
	"context"
	"strings"

	"github.com/dmitrymomot/otpbridge/pkg/item"
)

// Store persists encrypted records per user. Every method is atomic on its
// own; FetchAll returns records ordered by name, then id.
type Store interface {
	FetchAll(ctx context.Context, userID string) ([]item.Record, error)
	// ReplaceAll swaps the whole set of userID for records.
	ReplaceAll(ctx context.Context, userID string, records []item.Record) error
	// Upsert inserts records or overwrites those with the same id.
	Upsert(ctx context.Context, userID string, records ...item.Record) error
	// Delete removes one record; a missing record is not an error.
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) error
}

func compareRecords(a, b item.Record) int {
	return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
}
