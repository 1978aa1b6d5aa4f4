// Package store executes guarded DDL and CRUD against PostgreSQL.
//
// Requests originate from an LLM's function calls, so every table and column
// name is validated against a strict identifier grammar before it is quoted
// into SQL, column types must pass an allow-list, and all values travel as
// bind parameters. Each operation runs in its own transaction: commit on
// success, rollback on any error.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, connString string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
