package repository

import (
	"context"
	"fmt"
	"time"

	"product-service/internal/config"
	"product-service/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Open connects to the store described by desc, ensures the product schema
// exists, and returns the matching repository implementation.
func Open(ctx context.Context, desc config.ConnectionDescriptor, logger zerolog.Logger) (ProductRepository, error) {
	switch desc.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, desc, logger)
		if err != nil {
			return nil, err
		}
		repo, err := NewPostgresProductRepository(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil

	case config.DriverSQLite, config.DriverMySQL:
		db, err := database.OpenSQL(ctx, desc, logger)
		if err != nil {
			return nil, err
		}
		repo, err := NewSQLProductRepository(ctx, db, desc.Echo, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", desc.Driver)
	}
}

// withPgTx runs fn inside a transaction, committing when fn returns nil.
// The deferred rollback releases the connection on every other exit path.
func withPgTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// withSQLTx is withPgTx for database/sql handles.
func withSQLTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// now returns the creation timestamp for a new product, truncated to the
// microsecond precision every supported engine can store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
