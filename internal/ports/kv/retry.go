package kv

import (
	"context"
	"time"

	"medibot/internal/platform/logger"
	"medibot/internal/platform/retry"
)

// retrying reintenta solo StoreError; ErrNotFound y errores de decode pasan
// de inmediato.
type retrying struct {
	next   Store
	policy retry.Policy
	log    logger.Logger
}

// WithRetry decora un Store con reintentos acotados y backoff.
func WithRetry(next Store, policy retry.Policy, log logger.Logger) Store {
	if log == nil {
		log = logger.Nop()
	}
	return &retrying{next: next, policy: policy, log: log}
}

func (r *retrying) do(ctx context.Context, op, key string, fn func() error) error {
	attempt := 0
	return retry.Do(ctx, r.policy, IsStoreError, func() error {
		attempt++
		err := fn()
		if err != nil && IsStoreError(err) {
			r.log.Warn("store operation failed", map[string]any{
				"op":      op,
				"key":     key,
				"attempt": attempt,
				"err":     err,
			})
		}
		return err
	})
}

func (r *retrying) Get(ctx context.Context, kind Kind, id string) ([]byte, error) {
	var out []byte
	err := r.do(ctx, "get", RecordKey(kind, id), func() error {
		var err error
		out, err = r.next.Get(ctx, kind, id)
		return err
	})
	return out, err
}

func (r *retrying) Put(ctx context.Context, kind Kind, id string, value []byte) error {
	return r.do(ctx, "put", RecordKey(kind, id), func() error {
		return r.next.Put(ctx, kind, id, value)
	})
}

func (r *retrying) Delete(ctx context.Context, kind Kind, id string) error {
	return r.do(ctx, "delete", RecordKey(kind, id), func() error {
		return r.next.Delete(ctx, kind, id)
	})
}

func (r *retrying) IndexAdd(ctx context.Context, indexKey, member string) (bool, error) {
	var added bool
	err := r.do(ctx, "index_add", indexKey, func() error {
		var err error
		added, err = r.next.IndexAdd(ctx, indexKey, member)
		return err
	})
	return added, err
}

func (r *retrying) IndexRemove(ctx context.Context, indexKey, member string) error {
	return r.do(ctx, "index_remove", indexKey, func() error {
		return r.next.IndexRemove(ctx, indexKey, member)
	})
}

func (r *retrying) IndexMembers(ctx context.Context, indexKey string) ([]string, error) {
	var out []string
	err := r.do(ctx, "index_members", indexKey, func() error {
		var err error
		out, err = r.next.IndexMembers(ctx, indexKey)
		return err
	})
	return out, err
}

func (r *retrying) IndexDrop(ctx context.Context, indexKey string) error {
	return r.do(ctx, "index_drop", indexKey, func() error {
		return r.next.IndexDrop(ctx, indexKey)
	})
}

func (r *retrying) LogAppend(ctx context.Context, logKey string, ts time.Time) error {
	return r.do(ctx, "log_append", logKey, func() error {
		return r.next.LogAppend(ctx, logKey, ts)
	})
}

func (r *retrying) LogRead(ctx context.Context, logKey string, limit int) ([]time.Time, error) {
	var out []time.Time
	err := r.do(ctx, "log_read", logKey, func() error {
		var err error
		out, err = r.next.LogRead(ctx, logKey, limit)
		return err
	})
	return out, err
}

func (r *retrying) LogDrop(ctx context.Context, logKey string) error {
	return r.do(ctx, "log_drop", logKey, func() error {
		return r.next.LogDrop(ctx, logKey)
	})
}

func (r *retrying) ScalarGet(ctx context.Context, key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := r.do(ctx, "scalar_get", key, func() error {
		var err error
		v, ok, err = r.next.ScalarGet(ctx, key)
		return err
	})
	return v, ok, err
}

func (r *retrying) ScalarSet(ctx context.Context, key, value string) error {
	return r.do(ctx, "scalar_set", key, func() error {
		return r.next.ScalarSet(ctx, key, value)
	})
}

func (r *retrying) ScalarDelete(ctx context.Context, key string) error {
	return r.do(ctx, "scalar_delete", key, func() error {
		return r.next.ScalarDelete(ctx, key)
	})
}
