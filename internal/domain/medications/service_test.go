package medications_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/adapters/storage/memory"
	"medibot/internal/domain/frequency"
	"medibot/internal/domain/keys"
	"medibot/internal/domain/medications"
	"medibot/internal/domain/patients"
	"medibot/internal/ports/kv"
)

type fixture struct {
	store    *memory.Store
	patients *patients.Service
	meds     *medications.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	ps := patients.NewService(store)
	return fixture{
		store:    store,
		patients: ps,
		meds:     medications.NewService(store, ps),
	}
}

func (f fixture) createPatient(t *testing.T, owner, name string) patients.Patient {
	t.Helper()
	p, err := f.patients.Create(context.Background(), owner, name)
	require.NoError(t, err)
	return p
}

func (f fixture) createMedication(t *testing.T, p patients.Patient, name string, hours int) medications.Medication {
	t.Helper()
	m, err := f.meds.Create(context.Background(), medications.CreateInput{
		PatientID:    p.ID,
		OwnerUserID:  p.CreatorUserID,
		MedicineName: name,
		Dosage:       "200mg",
		Frequency:    frequency.Every(hours),
	})
	require.NoError(t, err)
	return m
}

// flakyStore hace fallar operaciones puntuales del store subyacente.
type flakyStore struct {
	kv.Store
	mu        sync.Mutex
	failPut   kv.Kind
	failIndex bool
	failLog   bool
}

func (s *flakyStore) set(fn func(*flakyStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *flakyStore) boom(op, key string) error {
	return &kv.StoreError{Op: op, Key: key, Err: errors.New("boom")}
}

func (s *flakyStore) Put(ctx context.Context, kind kv.Kind, id string, value []byte) error {
	s.mu.Lock()
	fail := s.failPut == kind
	s.mu.Unlock()
	if fail {
		return s.boom("put", kv.RecordKey(kind, id))
	}
	return s.Store.Put(ctx, kind, id, value)
}

func (s *flakyStore) IndexAdd(ctx context.Context, indexKey, member string) (bool, error) {
	s.mu.Lock()
	fail := s.failIndex
	s.mu.Unlock()
	if fail {
		return false, s.boom("index_add", indexKey)
	}
	return s.Store.IndexAdd(ctx, indexKey, member)
}

func (s *flakyStore) LogAppend(ctx context.Context, logKey string, ts time.Time) error {
	s.mu.Lock()
	fail := s.failLog
	s.mu.Unlock()
	if fail {
		return s.boom("log_append", logKey)
	}
	return s.Store.LogAppend(ctx, logKey, ts)
}

func newFlakyFixture(t *testing.T) (fixture, *flakyStore) {
	t.Helper()
	store := memory.NewStore()
	flaky := &flakyStore{Store: store}
	ps := patients.NewService(flaky)
	return fixture{
		store:    store,
		patients: ps,
		meds:     medications.NewService(flaky, ps),
	}, flaky
}

func medicationRecords(store *memory.Store) int {
	n := 0
	for k := range store.Snapshot().Records {
		if strings.HasPrefix(k, kv.RecordKey(keys.KindMedication, "")) {
			n++
		}
	}
	return n
}

func TestCreate_ThenListReturnsExactlyThatRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPatient(t, "100", "Alice")

	m := f.createMedication(t, p, "Ibuprofen", 6)
	assert.Equal(t, "Alice", m.PatientName)
	assert.Nil(t, m.LastTaken)

	list, err := f.meds.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].ID)
	assert.Equal(t, m.MedicineName, list[0].MedicineName)
	assert.Equal(t, m.Dosage, list[0].Dosage)
	assert.Equal(t, m.Frequency, list[0].Frequency)
	assert.Equal(t, m.PatientName, list[0].PatientName)
	assert.True(t, m.CreatedAt.Equal(list[0].CreatedAt))
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPatient(t, "100", "Alice")

	base := medications.CreateInput{
		PatientID:    p.ID,
		OwnerUserID:  "100",
		MedicineName: "Ibuprofen",
		Dosage:       "200mg",
		Frequency:    frequency.Every(6),
	}

	zero := base
	zero.Frequency = frequency.Frequency{}
	_, err := f.meds.Create(ctx, zero)
	assert.ErrorIs(t, err, medications.ErrInvalidInput)

	noName := base
	noName.MedicineName = "  "
	_, err = f.meds.Create(ctx, noName)
	assert.ErrorIs(t, err, medications.ErrInvalidInput)

	ghost := base
	ghost.PatientID = "missing"
	_, err = f.meds.Create(ctx, ghost)
	assert.ErrorIs(t, err, patients.ErrNotFound)

	list, err := f.meds.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSave_RefreshesPatientName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPatient(t, "100", "Alice")
	m := f.createMedication(t, p, "Ibuprofen", 6)

	p.Name = "Alice B."
	require.NoError(t, f.patients.Save(ctx, p))

	require.NoError(t, f.meds.Save(ctx, &m))
	got, err := f.meds.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", got.PatientName)

	// Sin paciente, el save no falla y conserva el nombre cacheado.
	require.NoError(t, f.store.Delete(ctx, keys.KindPatient, p.ID))
	require.NoError(t, f.meds.Save(ctx, &m))
	got, err = f.meds.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", got.PatientName)
}

func TestMarkTaken_AppendsLogInCallOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPatient(t, "100", "Alice")
	m := f.createMedication(t, p, "Ibuprofen", 6)

	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	meds := medications.NewService(f.store, f.patients, medications.WithClock(func() time.Time { return clock }))

	first, err := meds.MarkTaken(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, first.LastTaken)

	clock = clock.Add(6*time.Hour + 500*time.Millisecond)
	second, err := meds.MarkTaken(ctx, m.ID)
	require.NoError(t, err)

	log, err := meds.IntakeLog(ctx, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.True(t, log[0].Before(log[1]))
	assert.True(t, log[1].Equal(*second.LastTaken))

	stored, err := meds.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastTaken)
	assert.True(t, stored.LastTaken.Equal(log[1]))
	assert.Equal(t, 0, stored.LastTaken.Nanosecond())
}

func TestMarkTaken_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := f.meds.MarkTaken(context.Background(), "missing")
	assert.ErrorIs(t, err, medications.ErrNotFound)
}

func TestListByPatient_SkipsMissingAndSortsByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPatient(t, "100", "Alice")
	f.createMedication(t, p, "zinc", 24)
	f.createMedication(t, p, "Aspirin", 8)
	gone := f.createMedication(t, p, "Melatonin", 24)
	require.NoError(t, f.store.Delete(ctx, keys.KindMedication, gone.ID))

	list, err := f.meds.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Aspirin", list[0].MedicineName)
	assert.Equal(t, "zinc", list[1].MedicineName)
}

func TestPatientDelete_CascadesMedications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPatient(t, "100", "Alice")
	m := f.createMedication(t, p, "Ibuprofen", 6)
	_, err := f.meds.MarkTaken(ctx, m.ID)
	require.NoError(t, err)

	loaded, err := f.patients.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.patients.Delete(ctx, loaded))

	_, err = f.store.Get(ctx, keys.KindMedication, m.ID)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	log, err := f.meds.IntakeLog(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, log)

	ids, err := f.store.IndexMembers(ctx, keys.PatientMedications(p.ID))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSortByLastTaken(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	ms := []medications.Medication{
		{MedicineName: "never"},
		{MedicineName: "old", LastTaken: &t1},
		{MedicineName: "recent", LastTaken: &t2},
	}

	medications.SortByLastTaken(ms)

	assert.Equal(t, "recent", ms[0].MedicineName)
	assert.Equal(t, "old", ms[1].MedicineName)
	assert.Equal(t, "never", ms[2].MedicineName)
}

func TestCreate_IndexFailureLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	f, flaky := newFlakyFixture(t)
	p := f.createPatient(t, "100", "Alice")

	flaky.set(func(s *flakyStore) { s.failIndex = true })
	_, err := f.meds.Create(ctx, medications.CreateInput{
		PatientID:    p.ID,
		OwnerUserID:  "100",
		MedicineName: "Ibuprofen",
		Dosage:       "200mg",
		Frequency:    frequency.Every(6),
	})
	require.Error(t, err)
	assert.True(t, kv.IsStoreError(err))
	assert.Zero(t, medicationRecords(f.store))
}

func TestCreate_PutFailureIsInvisibleToListing(t *testing.T) {
	ctx := context.Background()
	f, flaky := newFlakyFixture(t)
	p := f.createPatient(t, "100", "Alice")

	flaky.set(func(s *flakyStore) { s.failPut = keys.KindMedication })
	_, err := f.meds.Create(ctx, medications.CreateInput{
		PatientID:    p.ID,
		OwnerUserID:  "100",
		MedicineName: "Ibuprofen",
		Dosage:       "200mg",
		Frequency:    frequency.Every(6),
	})
	require.Error(t, err)
	assert.Zero(t, medicationRecords(f.store))

	list, err := f.meds.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMarkTaken_SaveFailureWritesNoIntake(t *testing.T) {
	ctx := context.Background()
	f, flaky := newFlakyFixture(t)
	p := f.createPatient(t, "100", "Alice")
	m := f.createMedication(t, p, "Ibuprofen", 6)

	flaky.set(func(s *flakyStore) { s.failPut = keys.KindMedication })
	_, err := f.meds.MarkTaken(ctx, m.ID)
	require.Error(t, err)

	log, err := f.meds.IntakeLog(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, log)

	stored, err := f.meds.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastTaken)
}

func TestMarkTaken_LogFailureRestoresLastTaken(t *testing.T) {
	ctx := context.Background()
	f, flaky := newFlakyFixture(t)
	p := f.createPatient(t, "100", "Alice")
	m := f.createMedication(t, p, "Ibuprofen", 6)

	flaky.set(func(s *flakyStore) { s.failLog = true })
	_, err := f.meds.MarkTaken(ctx, m.ID)
	require.Error(t, err)
	assert.True(t, kv.IsStoreError(err))

	stored, err := f.meds.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastTaken)

	// El reintento registra una sola toma.
	flaky.set(func(s *flakyStore) { s.failLog = false })
	taken, err := f.meds.MarkTaken(ctx, m.ID)
	require.NoError(t, err)

	log, err := f.meds.IntakeLog(ctx, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.True(t, log[0].Equal(*taken.LastTaken))
}
