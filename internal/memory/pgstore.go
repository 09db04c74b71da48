// internal/memory/pgstore.go
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so the store can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGStore persists the selector memory in Postgres so a fleet of workers
// can share healed selectors. One row per cache key; SaveAll replaces the
// table contents inside a transaction, matching the wholesale-rewrite
// contract of the file store.
type PGStore struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.SelectorStore = (*PGStore)(nil)

// NewPGStore creates a Postgres-backed selector store and verifies the
// connection.
func NewPGStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PGStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PGStore{
		pool: pool,
		log:  logger.Named("pg_selector_store"),
	}, nil
}

// Load reads the full mapping from the selector_memory table.
func (s *PGStore) Load(ctx context.Context) (map[string]schemas.CacheEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, selector, updated_at FROM selector_memory;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query selector memory: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]schemas.CacheEntry)
	for rows.Next() {
		var key string
		var entry schemas.CacheEntry
		if err := rows.Scan(&key, &entry.Selector, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selector memory row: %w", err)
		}
		entries[key] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return entries, nil
}

// SaveAll replaces the stored mapping wholesale.
func (s *PGStore) SaveAll(ctx context.Context, entries map[string]schemas.CacheEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction.", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM selector_memory;`); err != nil {
		return fmt.Errorf("failed to clear selector memory: %w", err)
	}

	if len(entries) > 0 {
		batch := &pgx.Batch{}
		sql := `INSERT INTO selector_memory (key, selector, updated_at) VALUES ($1, $2, $3);`
		for key, entry := range entries {
			batch.Queue(sql, key, entry.Selector, entry.UpdatedAt)
		}

		br := tx.SendBatch(ctx, batch)
		if br == nil {
			return fmt.Errorf("failed to send batch: batch results is nil")
		}
		for i := 0; i < len(entries); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to execute batch insert (index %d): %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
