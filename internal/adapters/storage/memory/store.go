package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"medibot/internal/ports/kv"
)

// Store es un kv.Store en memoria. Copia los valores al entrar y al salir
// para que ningún llamador comparta slices con el mapa interno.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
	sets    map[string]map[string]struct{}
	logs    map[string][]time.Time
	scalars map[string]string
}

func NewStore() *Store {
	return &Store{
		records: make(map[string][]byte),
		sets:    make(map[string]map[string]struct{}),
		logs:    make(map[string][]time.Time),
		scalars: make(map[string]string),
	}
}

var _ kv.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, kind kv.Kind, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[kv.RecordKey(kind, id)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Put(ctx context.Context, kind kv.Kind, id string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[kv.RecordKey(kind, id)] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(ctx context.Context, kind kv.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, kv.RecordKey(kind, id))
	return nil
}

func (s *Store) IndexAdd(ctx context.Context, indexKey, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[indexKey]
	if !ok {
		set = make(map[string]struct{})
		s.sets[indexKey] = set
	}
	if _, dup := set[member]; dup {
		return false, nil
	}
	set[member] = struct{}{}
	return true, nil
}

func (s *Store) IndexRemove(ctx context.Context, indexKey, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[indexKey]
	if !ok {
		return nil
	}
	delete(set, member)
	if len(set) == 0 {
		delete(s.sets, indexKey)
	}
	return nil
}

func (s *Store) IndexMembers(ctx context.Context, indexKey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.sets[indexKey]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) IndexDrop(ctx context.Context, indexKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets, indexKey)
	return nil
}

func (s *Store) LogAppend(ctx context.Context, logKey string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[logKey] = append(s.logs[logKey], ts)
	return nil
}

func (s *Store) LogRead(ctx context.Context, logKey string, limit int) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[logKey]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return slices.Clone(entries), nil
}

func (s *Store) LogDrop(ctx context.Context, logKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.logs, logKey)
	return nil
}

func (s *Store) ScalarGet(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.scalars[key]
	return v, ok, nil
}

func (s *Store) ScalarSet(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scalars[key] = value
	return nil
}

func (s *Store) ScalarDelete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scalars, key)
	return nil
}

// Snapshot es una copia profunda y comparable del contenido del store.
type Snapshot struct {
	Records map[string]string
	Sets    map[string][]string
	Logs    map[string][]time.Time
	Scalars map[string]string
}

// Snapshot permite comparar el estado completo antes y después de una operación.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Records: make(map[string]string, len(s.records)),
		Sets:    make(map[string][]string, len(s.sets)),
		Logs:    make(map[string][]time.Time, len(s.logs)),
		Scalars: maps.Clone(s.scalars),
	}
	for k, v := range s.records {
		snap.Records[k] = string(v)
	}
	for k, set := range s.sets {
		members := slices.Collect(maps.Keys(set))
		slices.Sort(members)
		snap.Sets[k] = members
	}
	for k, v := range s.logs {
		snap.Logs[k] = slices.Clone(v)
	}
	return snap
}
