// Package postgres stores records as JSONB rows in a key-value table.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurelius/storefront/db"
	"github.com/aurelius/storefront/internal/storage"
)

const (
	getRecordSQL = `SELECT value FROM kv_records WHERE key = $1`

	putRecordSQL = `INSERT INTO kv_records (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	deleteRecordSQL = `DELETE FROM kv_records WHERE key = $1`

	// Serializes updates of a key even before its row exists.
	lockRecordSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	getRecordForUpdateSQL = `SELECT value FROM kv_records WHERE key = $1 FOR UPDATE`
)

var _ storage.Backend = (*Backend)(nil)

// NewPool creates a pgxpool.Pool for the given connection URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// Backend implements storage.Backend backed by PostgreSQL.
type Backend struct {
	pool *pgxpool.Pool
}

// New opens a pool, applies the schema and returns a Backend that owns the
// pool.
func New(ctx context.Context, databaseURL string) (*Backend, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewBackend(pool), nil
}

// NewBackend returns a Backend that uses the given pool.
func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

// Get returns the JSON document stored at key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := b.pool.QueryRow(ctx, getRecordSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(storage.ErrNotFound, "key %s", key)
		}
		return nil, errors.Wrapf(err, "get record %q", key)
	}
	return value, nil
}

// Put upserts the JSON document at key.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if _, err := b.pool.Exec(ctx, putRecordSQL, key, string(value)); err != nil {
		return errors.Wrapf(err, "put record %q", key)
	}
	return nil
}

// Delete removes the row for key.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if _, err := b.pool.Exec(ctx, deleteRecordSQL, key); err != nil {
		return errors.Wrapf(err, "delete record %q", key)
	}
	return nil
}

// Update applies fn to the row for key inside a transaction holding the key's
// advisory lock.
func (b *Backend) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	return pgx.BeginTxFunc(ctx, b.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockRecordSQL, key); err != nil {
			return errors.Wrapf(err, "lock record %q", key)
		}

		var current []byte
		if err := tx.QueryRow(ctx, getRecordForUpdateSQL, key).Scan(&current); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return errors.Wrapf(err, "get record %q", key)
			}
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, putRecordSQL, key, string(next)); err != nil {
			return errors.Wrapf(err, "put record %q", key)
		}
		return nil
	})
}

// Ping checks database connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close releases the pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
