package session

import (
	"context"
	"errors"
	"sync"

	"medibot/internal/domain/keys"
	"medibot/internal/ports/kv"
)

// Store guarda un State por chat. Lock serializa el manejo de eventos del
// mismo chat; chats distintos no se bloquean entre sí.
type Store interface {
	Get(ctx context.Context, chatID string) (State, error)
	Set(ctx context.Context, chatID string, st State) error
	Lock(chatID string) (unlock func())
}

// keyedLocks es un mutex por clave con conteo de referencias, para no
// acumular mutexes de chats inactivos.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// MemoryStore mantiene las sesiones en proceso. Se pierden al reiniciar.
type MemoryStore struct {
	keyedLocks

	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Get(ctx context.Context, chatID string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[chatID]
	if !ok {
		return Start{}, nil
	}
	return st, nil
}

func (s *MemoryStore) Set(ctx context.Context, chatID string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, isStart := st.(Start); isStart || st == nil {
		delete(s.states, chatID)
		return nil
	}
	s.states[chatID] = st
	return nil
}

// KVStore persiste las sesiones en el kv.Store bajo session:{chatId}, así
// sobreviven a reinicios. La serialización por chat sigue siendo en proceso.
type KVStore struct {
	keyedLocks

	store kv.Store
}

func NewKVStore(store kv.Store) *KVStore {
	return &KVStore{store: store}
}

func (s *KVStore) Get(ctx context.Context, chatID string) (State, error) {
	raw, ok, err := s.store.ScalarGet(ctx, keys.Session(chatID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return Start{}, nil
	}
	st, err := Unmarshal([]byte(raw))
	if err != nil {
		// Un estado ilegible (p.ej. de una versión anterior) vuelve a Start.
		return Start{}, nil
	}
	return st, nil
}

func (s *KVStore) Set(ctx context.Context, chatID string, st State) error {
	if st == nil {
		return errors.New("session: nil state")
	}
	if _, isStart := st.(Start); isStart {
		return s.store.ScalarDelete(ctx, keys.Session(chatID))
	}
	raw, err := Marshal(st)
	if err != nil {
		return err
	}
	return s.store.ScalarSet(ctx, keys.Session(chatID), string(raw))
}
