package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS storage_values (
	region     INTEGER NOT NULL,
	region_key TEXT    NOT NULL,
	user_id    TEXT    NOT NULL DEFAULT '',
	data       TEXT    NOT NULL,
	PRIMARY KEY (region, region_key, user_id)
)`

// SQLiteStore keeps values in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) a store at dsn. ":memory:" gives
// a private in-memory database.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, keys []Key) ([]Value, error) {
	values := make([]Value, 0, len(keys))
	for _, k := range keys {
		var raw string
		err := s.db.QueryRowContext(ctx,
			`SELECT data FROM storage_values WHERE region = ? AND region_key = ? AND user_id = ?`,
			int(k.Region), k.RegionKey, k.UserID,
		).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			values = append(values, Value{Key: k})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", k.Region, k.RegionKey, err)
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", k.Region, k.RegionKey, err)
		}
		values = append(values, Value{Key: k, Data: data})
	}
	return values, nil
}

func (s *SQLiteStore) Save(ctx context.Context, values []Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range values {
		raw, err := json.Marshal(v.Data)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", v.Key.Region, v.Key.RegionKey, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO storage_values (region, region_key, user_id, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT (region, region_key, user_id) DO UPDATE SET data = excluded.data`,
			int(v.Key.Region), v.Key.RegionKey, v.Key.UserID, string(raw),
		)
		if err != nil {
			return fmt.Errorf("save %s/%s: %w", v.Key.Region, v.Key.RegionKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
