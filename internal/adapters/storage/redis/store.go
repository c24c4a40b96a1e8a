package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"medibot/internal/ports/kv"
)

// Store implementa kv.Store con tipos nativos de Redis: STRING para
// registros y escalares, SET para índices, LIST (RPUSH) para logs.
// Todas las claves llevan el prefijo configurado.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open crea el cliente (con su pool interno) y verifica la conexión.
func Open(ctx context.Context, opts Options) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewStore(rdb, opts.Prefix), nil
}

func NewStore(rdb goredis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

var _ kv.Store = (*Store)(nil)

func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifica que el servidor responda (readiness).
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", "", s.rdb.Ping(ctx).Err())
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &kv.StoreError{Op: op, Key: key, Err: err}
}

func (s *Store) Get(ctx context.Context, kind kv.Kind, id string) ([]byte, error) {
	k := kv.RecordKey(kind, id)
	v, err := s.rdb.Get(ctx, s.key(k)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, kv.ErrNotFound
		}
		return nil, wrap("get", k, err)
	}
	return v, nil
}

func (s *Store) Put(ctx context.Context, kind kv.Kind, id string, value []byte) error {
	k := kv.RecordKey(kind, id)
	return wrap("put", k, s.rdb.Set(ctx, s.key(k), value, 0).Err())
}

func (s *Store) Delete(ctx context.Context, kind kv.Kind, id string) error {
	k := kv.RecordKey(kind, id)
	return wrap("delete", k, s.rdb.Del(ctx, s.key(k)).Err())
}

func (s *Store) IndexAdd(ctx context.Context, indexKey, member string) (bool, error) {
	n, err := s.rdb.SAdd(ctx, s.key(indexKey), member).Result()
	if err != nil {
		return false, wrap("index_add", indexKey, err)
	}
	return n == 1, nil
}

func (s *Store) IndexRemove(ctx context.Context, indexKey, member string) error {
	return wrap("index_remove", indexKey, s.rdb.SRem(ctx, s.key(indexKey), member).Err())
}

func (s *Store) IndexMembers(ctx context.Context, indexKey string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, s.key(indexKey)).Result()
	if err != nil {
		return nil, wrap("index_members", indexKey, err)
	}
	slices.Sort(members)
	return members, nil
}

func (s *Store) IndexDrop(ctx context.Context, indexKey string) error {
	return wrap("index_drop", indexKey, s.rdb.Del(ctx, s.key(indexKey)).Err())
}

// Los timestamps se guardan como unix nanos en texto.
func (s *Store) LogAppend(ctx context.Context, logKey string, ts time.Time) error {
	v := strconv.FormatInt(ts.UnixNano(), 10)
	return wrap("log_append", logKey, s.rdb.RPush(ctx, s.key(logKey), v).Err())
}

func (s *Store) LogRead(ctx context.Context, logKey string, limit int) ([]time.Time, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.rdb.LRange(ctx, s.key(logKey), start, -1).Result()
	if err != nil {
		return nil, wrap("log_read", logKey, err)
	}

	out := make([]time.Time, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: malformed log entry in %s: %w", logKey, err)
		}
		out = append(out, time.Unix(0, n).UTC())
	}
	return out, nil
}

func (s *Store) LogDrop(ctx context.Context, logKey string) error {
	return wrap("log_drop", logKey, s.rdb.Del(ctx, s.key(logKey)).Err())
}

func (s *Store) ScalarGet(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, wrap("scalar_get", key, err)
	}
	return v, true, nil
}

func (s *Store) ScalarSet(ctx context.Context, key, value string) error {
	return wrap("scalar_set", key, s.rdb.Set(ctx, s.key(key), value, 0).Err())
}

func (s *Store) ScalarDelete(ctx context.Context, key string) error {
	return wrap("scalar_delete", key, s.rdb.Del(ctx, s.key(key)).Err())
}
