package medications

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"medibot/internal/domain/frequency"
	"medibot/internal/domain/keys"
	"medibot/internal/domain/patients"
	"medibot/internal/ports/kv"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
)

// PatientNames resuelve el nombre visible de un paciente.
// patients.Service lo implementa (NameOf).
type PatientNames interface {
	NameOf(ctx context.Context, patientID string) (string, error)
}

type Service struct {
	store    kv.Store
	patients PatientNames
	now      func() time.Time
}

// Option ajusta el Service al construirlo.
type Option func(*Service)

// WithClock reemplaza time.Now (tests, simulaciones).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store kv.Store, patients PatientNames, opts ...Option) *Service {
	s := &Service{
		store:    store,
		patients: patients,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	PatientID    string
	OwnerUserID  string
	MedicineName string
	Dosage       string
	Frequency    frequency.Frequency
}

// Create persiste un plan nuevo. El paciente debe existir.
func (s *Service) Create(ctx context.Context, in CreateInput) (Medication, error) {
	m := Medication{
		ID:           uuid.NewString(),
		PatientID:    strings.TrimSpace(in.PatientID),
		MedicineName: strings.TrimSpace(in.MedicineName),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    in.Frequency,
		OwnerUserID:  strings.TrimSpace(in.OwnerUserID),
		CreatedAt:    s.now().UTC(),
	}
	if m.PatientID == "" || m.OwnerUserID == "" || m.MedicineName == "" || m.Dosage == "" {
		return Medication{}, ErrInvalidInput
	}
	if m.Frequency.Hours <= 0 {
		return Medication{}, ErrInvalidInput
	}

	if _, err := s.patients.NameOf(ctx, m.PatientID); err != nil {
		return Medication{}, err
	}

	// Índice antes que registro: un fallo a mitad deja una entrada huérfana
	// que ListByPatient descarta, nunca un registro inalcanzable.
	if _, err := s.store.IndexAdd(ctx, keys.PatientMedications(m.PatientID), m.ID); err != nil {
		return Medication{}, fmt.Errorf("index medication: %w", err)
	}
	if err := s.Save(ctx, &m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// Save refresca el nombre cacheado del paciente (si el paciente ya no existe
// se conserva el anterior) y sobreescribe el registro.
func (s *Service) Save(ctx context.Context, m *Medication) error {
	name, err := s.patients.NameOf(ctx, m.PatientID)
	switch {
	case err == nil:
		m.PatientName = name
	case errors.Is(err, patients.ErrNotFound):
		// best-effort
	default:
		return fmt.Errorf("refresh patient name: %w", err)
	}

	if err := kv.PutJSON(ctx, s.store, keys.KindMedication, m.ID, *m); err != nil {
		return fmt.Errorf("save medication: %w", err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrNotFound
	}
	m, err := kv.GetJSON[Medication](ctx, s.store, keys.KindMedication, id)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, err
	}
	return m, nil
}

// ListByPatient devuelve los planes del paciente ordenados por nombre,
// omitiendo entradas del índice sin registro.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Medication, error) {
	ids, err := s.store.IndexMembers(ctx, keys.PatientMedications(patientID))
	if err != nil {
		return nil, err
	}

	out := make([]Medication, 0, len(ids))
	for _, id := range ids {
		m, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, m)
	}

	slices.SortFunc(out, func(a, b Medication) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.MedicineName), strings.ToLower(b.MedicineName)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// MarkTaken registra una toma ahora: actualiza LastTaken y después agrega al
// log. Si el log falla se restaura el LastTaken previo, así un reintento no
// deja dos entradas para una sola toma. El timestamp se trunca a segundos
// para que log y registro coincidan en cualquier backend.
func (s *Service) MarkTaken(ctx context.Context, id string) (Medication, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}

	prev := m.LastTaken
	at := s.now().UTC().Truncate(time.Second)
	m.LastTaken = &at
	if err := s.Save(ctx, &m); err != nil {
		return Medication{}, err
	}

	if err := s.store.LogAppend(ctx, keys.MedicationTakenLog(m.ID), at); err != nil {
		err = fmt.Errorf("append intake: %w", err)
		m.LastTaken = prev
		if rbErr := s.Save(ctx, &m); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("restore last taken: %w", rbErr))
		}
		return Medication{}, err
	}
	return m, nil
}

// IntakeLog devuelve las últimas `limit` tomas en orden cronológico.
func (s *Service) IntakeLog(ctx context.Context, id string, limit int) ([]time.Time, error) {
	return s.store.LogRead(ctx, keys.MedicationTakenLog(id), limit)
}

// SortByLastTaken ordena por última toma, más reciente primero; las nunca
// tomadas van al final.
func SortByLastTaken(ms []Medication) {
	slices.SortStableFunc(ms, func(a, b Medication) int {
		switch {
		case a.LastTaken == nil && b.LastTaken == nil:
			return 0
		case a.LastTaken == nil:
			return 1
		case b.LastTaken == nil:
			return -1
		default:
			return b.LastTaken.Compare(*a.LastTaken)
		}
	})
}
