package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/adapters/storage/memory"
	"medibot/internal/domain/keys"
	"medibot/internal/ports/kv"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestCreate_PersistsAndIndexesUnderCreator(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	p, err := svc.Create(ctx, "100", "  Alice ")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "100", p.CreatorUserID)

	ids, err := store.IndexMembers(ctx, keys.OwnerPatients("100"))
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, ids)

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestCreate_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, "100", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "", "Alice")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForUser_SortsAndDropsMissingRecords(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	bob, err := svc.Create(ctx, "100", "bob")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "100", "Alice")
	require.NoError(t, err)

	// Índice huérfano: entrada sin registro.
	_, err = store.IndexAdd(ctx, keys.OwnerPatients("100"), "ghost")
	require.NoError(t, err)
	// Registro borrado por fuera.
	require.NoError(t, store.Delete(ctx, keys.KindPatient, bob.ID))

	list, err := svc.ListForUser(ctx, "100")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)

	empty, err := svc.ListForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDelete_CascadesCreatorAndSharedIndexes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	p, err := svc.Create(ctx, "100", "Alice")
	require.NoError(t, err)

	// Simula un share: set-add en ambos índices.
	_, err = store.IndexAdd(ctx, keys.PatientSharedWith(p.ID), "200")
	require.NoError(t, err)
	_, err = store.IndexAdd(ctx, keys.OwnerPatients("200"), p.ID)
	require.NoError(t, err)

	loaded, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"200"}, loaded.SharedWith)

	require.NoError(t, svc.Delete(ctx, loaded))

	_, err = store.Get(ctx, keys.KindPatient, p.ID)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	for _, u := range []string{"100", "200"} {
		ids, err := store.IndexMembers(ctx, keys.OwnerPatients(u))
		require.NoError(t, err)
		assert.NotContains(t, ids, p.ID, "index of %s", u)

		list, err := svc.ListForUser(ctx, u)
		require.NoError(t, err)
		assert.Empty(t, list)
	}

	shared, err := store.IndexMembers(ctx, keys.PatientSharedWith(p.ID))
	require.NoError(t, err)
	assert.Empty(t, shared)
}

func TestAccessSet(t *testing.T) {
	p := Patient{CreatorUserID: "1", SharedWith: []string{"2", "1", "3", "2"}}
	assert.Equal(t, []string{"1", "2", "3"}, p.AccessSet())
	assert.True(t, p.IsCreator("1"))
	assert.False(t, p.IsCreator("2"))
	assert.False(t, Patient{}.IsCreator(""))
}

func TestNameOf(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p, err := svc.Create(ctx, "100", "Alice")
	require.NoError(t, err)

	name, err := svc.NameOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	_, err = svc.NameOf(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// putFailingStore rechaza todo Put; el resto pasa al store real.
type putFailingStore struct {
	kv.Store
}

func (putFailingStore) Put(_ context.Context, kind kv.Kind, id string, _ []byte) error {
	return &kv.StoreError{Op: "put", Key: kv.RecordKey(kind, id), Err: errors.New("boom")}
}

func TestCreate_PutFailureLeavesNoVisiblePatient(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(putFailingStore{Store: store})

	_, err := svc.Create(ctx, "100", "Alice")
	require.Error(t, err)
	assert.True(t, kv.IsStoreError(err))
	assert.Empty(t, store.Snapshot().Records)

	list, err := NewService(store).ListForUser(ctx, "100")
	require.NoError(t, err)
	assert.Empty(t, list)
}
