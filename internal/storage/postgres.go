package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloakswap/pkg/platform/sentinel"
	"cloakswap/pkg/platform/tx"
)

// PostgresStore keeps records in the kv_records table. Update takes a
// transaction-scoped advisory lock on (namespace, key), which also serializes
// writers racing to create a key that does not exist yet.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store over an open pool.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or the pool.
func (s *PostgresStore) conn(ctx context.Context) queryer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	var value []byte
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE namespace = $1 AND key = $2`,
		string(ns), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, Unavailable("postgres get", err)
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, ns Namespace, key string, value []byte) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO kv_records (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, string(ns), key, value)
	if err != nil {
		return Unavailable("postgres put", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, ns Namespace, key string) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM kv_records WHERE namespace = $1 AND key = $2`,
		string(ns), key,
	)
	if err != nil {
		return Unavailable("postgres delete", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, ns Namespace, key string, fn UpdateFunc) error {
	err := tx.Run(ctx, s.db, func(txCtx context.Context, sqlTx *sql.Tx) error {
		if _, err := sqlTx.ExecContext(txCtx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(ns, key),
		); err != nil {
			return Unavailable("postgres lock", err)
		}

		current, err := s.Get(txCtx, ns, key)
		exists := err == nil
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		next, err := fn(current, exists)
		if err != nil || next == nil {
			return err
		}
		return s.Put(txCtx, ns, key, next)
	})
	var opErr *tx.OpError
	if errors.As(err, &opErr) {
		return Unavailable("postgres "+opErr.Op, opErr.Err)
	}
	return err
}

func (s *PostgresStore) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv_records WHERE namespace = $1`, string(ns),
	)
	if err != nil {
		return nil, Unavailable("postgres keys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, Unavailable("postgres keys", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable("postgres keys", fmt.Errorf("iterate: %w", err))
	}
	return keys, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return Unavailable("postgres ping", err)
	}
	return nil
}

// Close is a no-op; the pool is owned by internal/platform/database.
func (s *PostgresStore) Close() error {
	return nil
}
