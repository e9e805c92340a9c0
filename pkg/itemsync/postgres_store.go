package itemsync

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/otpbridge/pkg/item"
)

// PostgresStore is a Store backed by the bridge_items table. Apply
// Migrations before use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var itemColumns = []string{
	"user_id", "id", "favorite", "name", "totp_key", "username", "account_domain", "account_email",
}

const (
	selectItemsSQL = `SELECT id, user_id, favorite, name, totp_key, username, account_domain, account_email
FROM bridge_items WHERE user_id = $1 ORDER BY name, id`

	upsertItemSQL = `INSERT INTO bridge_items (user_id, id, favorite, name, totp_key, username, account_domain, account_email)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, id) DO UPDATE SET
    favorite = EXCLUDED.favorite,
    name = EXCLUDED.name,
    totp_key = EXCLUDED.totp_key,
    username = EXCLUDED.username,
    account_domain = EXCLUDED.account_domain,
    account_email = EXCLUDED.account_email,
    updated_at = NOW()`

	deleteItemSQL      = `DELETE FROM bridge_items WHERE user_id = $1 AND id = $2`
	deleteUserItemsSQL = `DELETE FROM bridge_items WHERE user_id = $1`
)

func (s *PostgresStore) FetchAll(ctx context.Context, userID string) ([]item.Record, error) {
	rows, err := s.pool.Query(ctx, selectItemsSQL, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (item.Record, error) {
		var r item.Record
		err := row.Scan(&r.ID, &r.UserID, &r.Favorite, &r.Name, &r.TOTPKey, &r.Username, &r.AccountDomain, &r.AccountEmail)
		return r, err
	})
}

// ReplaceAll deletes the user's rows and copies the new set in, inside one
// transaction.
func (s *PostgresStore) ReplaceAll(ctx context.Context, userID string, records []item.Record) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteUserItemsSQL, userID); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"bridge_items"}, itemColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				return recordValues(userID, records[i]), nil
			}))
		return err
	})
}

func (s *PostgresStore) Upsert(ctx context.Context, userID string, records ...item.Record) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(upsertItemSQL, recordValues(userID, r)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	_, err := s.pool.Exec(ctx, deleteItemSQL, userID, id)
	return err
}

func (s *PostgresStore) DeleteAll(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, deleteUserItemsSQL, userID)
	return err
}

func recordValues(userID string, r item.Record) []any {
	return []any{userID, r.ID, r.Favorite, r.Name, r.TOTPKey, r.Username, r.AccountDomain, r.AccountEmail}
}
