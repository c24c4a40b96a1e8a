package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifica el tipo de registro; la clave física es "<kind>:<id>".
type Kind string

var ErrNotFound = errors.New("kv: not found")

// StoreError envuelve fallas de I/O del backend. Es el único error que se
// reintenta; ErrNotFound nunca se envuelve en StoreError.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("kv %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError indica si err (o algo que envuelve) es una falla del backend.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// Store es la capacidad de persistencia que consume el dominio.
// Las operaciones de índice son mutaciones atómicas de conjunto en el backend.
type Store interface {
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)
	Put(ctx context.Context, kind Kind, id string, value []byte) error
	Delete(ctx context.Context, kind Kind, id string) error

	// IndexAdd informa si member no estaba en el conjunto.
	IndexAdd(ctx context.Context, indexKey, member string) (bool, error)
	IndexRemove(ctx context.Context, indexKey, member string) error
	IndexMembers(ctx context.Context, indexKey string) ([]string, error)
	IndexDrop(ctx context.Context, indexKey string) error

	LogAppend(ctx context.Context, logKey string, ts time.Time) error
	// LogRead devuelve las últimas `limit` entradas en orden de inserción
	// (limit <= 0 => todas).
	LogRead(ctx context.Context, logKey string, limit int) ([]time.Time, error)
	LogDrop(ctx context.Context, logKey string) error

	ScalarGet(ctx context.Context, key string) (string, bool, error)
	ScalarSet(ctx context.Context, key, value string) error
	ScalarDelete(ctx context.Context, key string) error
}

// RecordKey arma la clave física de un registro.
func RecordKey(kind Kind, id string) string {
	return string(kind) + ":" + id
}
