package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON lee y decodifica un registro tipado.
func GetJSON[T any](ctx context.Context, s Store, kind Kind, id string) (T, error) {
	var out T
	raw, err := s.Get(ctx, kind, id)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("kv: decode %s: %w", RecordKey(kind, id), err)
	}
	return out, nil
}

// PutJSON codifica y sobreescribe (upsert) un registro tipado.
func PutJSON[T any](ctx context.Context, s Store, kind Kind, id string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", RecordKey(kind, id), err)
	}
	return s.Put(ctx, kind, id, raw)
}
