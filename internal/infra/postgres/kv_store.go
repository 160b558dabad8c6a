package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

// KVStore keeps JSON values in the quiz_results table keyed by the gateway's result key.
type KVStore struct {
	db bun.IDB
}

func NewKVStore(db bun.IDB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM quiz_results WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return raw, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_results (key, data) VALUES (?, ?::jsonb) ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// PutIfAbsent relies on the primary key: a conflicting insert affects no rows.
func (s *KVStore) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_results (key, data) VALUES (?, ?::jsonb) ON CONFLICT (key) DO NOTHING`,
		key, string(value))
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", key, err)
	}
	return n == 1, nil
}
