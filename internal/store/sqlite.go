package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps each collection as a single JSON document in the
// collections table created by internal/db migrations. The document has the
// same shape as a FileStore file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened and migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the stored collection or an empty one when no row exists yet.
func (s *SQLiteStore) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM collections WHERE name = ?`, collection).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("%w: select %s: %v", ErrIO, collection, err)
	}
	return decode(collection, []byte(body))
}

// Save upserts the collection row in a single statement.
func (s *SQLiteStore) Save(ctx context.Context, collection string, records []json.RawMessage) error {
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `INSERT INTO collections (name, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`, collection, string(data))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrIO, collection, err)
	}
	return nil
}
