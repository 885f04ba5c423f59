package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"techdocs/pkg/logger"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps entries in a kv_store table. The same queries serve SQLite
// and PostgreSQL; only the placeholder syntax differs.
type SQLStore struct {
	DB      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{DB: db, dialect: dialect}
}

// Migrate creates the kv_store table when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		logger.Sugar.Errorf("Failed to create kv_store table: %v", err)
		return fmt.Errorf("migrate kv_store: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = "+s.bind(1), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to read key %s: %v", key, err)
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`INSERT INTO kv_store (key, value, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.bind(1), s.bind(2), s.bind(3))
	if _, err := s.DB.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		logger.Sugar.Errorf("Failed to write key %s: %v", key, err)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes all keys in one transaction.
func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	query := "DELETE FROM kv_store WHERE key = " + s.bind(1)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, query, k); err != nil {
			logger.Sugar.Errorf("Failed to delete key %s: %v", k, err)
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (s *SQLStore) bind(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
