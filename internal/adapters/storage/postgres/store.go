package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medibot/internal/ports/kv"
)

// Store implementa kv.Store sobre cuatro tablas (ver schema.sql).
// Los índices usan INSERT ... ON CONFLICT DO NOTHING / DELETE, que son
// atómicos por fila: dos shares simultáneos no se pisan.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ kv.Store = (*Store)(nil)

// Ping verifica que el pool pueda obtener una conexión (readiness).
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", "", s.pool.Ping(ctx))
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &kv.StoreError{Op: op, Key: key, Err: err}
}

func (s *Store) Get(ctx context.Context, kind kv.Kind, id string) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM kv_records WHERE kind = $1 AND id = $2
	`, string(kind), id).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, wrap("get", kv.RecordKey(kind, id), err)
	}
	return []byte(value), nil
}

func (s *Store) Put(ctx context.Context, kind kv.Kind, id string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_records (kind, id, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, id) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, string(kind), id, string(value))
	return wrap("put", kv.RecordKey(kind, id), err)
}

func (s *Store) Delete(ctx context.Context, kind kv.Kind, id string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM kv_records WHERE kind = $1 AND id = $2
	`, string(kind), id)
	return wrap("delete", kv.RecordKey(kind, id), err)
}

func (s *Store) IndexAdd(ctx context.Context, indexKey, member string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO kv_index_members (index_key, member)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, indexKey, member)
	if err != nil {
		return false, wrap("index_add", indexKey, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) IndexRemove(ctx context.Context, indexKey, member string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM kv_index_members WHERE index_key = $1 AND member = $2
	`, indexKey, member)
	return wrap("index_remove", indexKey, err)
}

func (s *Store) IndexMembers(ctx context.Context, indexKey string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT member FROM kv_index_members
		WHERE index_key = $1
		ORDER BY member ASC
	`, indexKey)
	if err != nil {
		return nil, wrap("index_members", indexKey, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrap("index_members", indexKey, err)
	}
	return out, nil
}

func (s *Store) IndexDrop(ctx context.Context, indexKey string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM kv_index_members WHERE index_key = $1
	`, indexKey)
	return wrap("index_drop", indexKey, err)
}

func (s *Store) LogAppend(ctx context.Context, logKey string, ts time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_log_entries (log_key, ts) VALUES ($1, $2)
	`, logKey, ts.UTC())
	return wrap("log_append", logKey, err)
}

func (s *Store) LogRead(ctx context.Context, logKey string, limit int) ([]time.Time, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT ts FROM (
				SELECT seq, ts FROM kv_log_entries
				WHERE log_key = $1
				ORDER BY seq DESC
				LIMIT $2
			) recent
			ORDER BY seq ASC
		`, logKey, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT ts FROM kv_log_entries
			WHERE log_key = $1
			ORDER BY seq ASC
		`, logKey)
	}
	if err != nil {
		return nil, wrap("log_read", logKey, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, wrap("log_read", logKey, err)
	}
	return out, nil
}

func (s *Store) LogDrop(ctx context.Context, logKey string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM kv_log_entries WHERE log_key = $1
	`, logKey)
	return wrap("log_drop", logKey, err)
}

func (s *Store) ScalarGet(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM kv_scalars WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, wrap("scalar_get", key, err)
	}
	return value, true, nil
}

func (s *Store) ScalarSet(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_scalars (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return wrap("scalar_set", key, err)
}

func (s *Store) ScalarDelete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM kv_scalars WHERE key = $1
	`, key)
	return wrap("scalar_delete", key, err)
}
