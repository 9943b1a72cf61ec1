package draft

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore keeps drafts in the draft table, one row per key.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM draft
		WHERE key = ?`,
		key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *SQLStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO draft (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`,
		key,
		string(data),
		time.Now(),
	)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM draft
		WHERE key = ?`,
		key,
	)
	return err
}
