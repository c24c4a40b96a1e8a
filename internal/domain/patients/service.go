package patients

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"medibot/internal/domain/keys"
	"medibot/internal/ports/kv"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("patient not found")
)

type Service struct {
	store kv.Store
	now   func() time.Time
}

func NewService(store kv.Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) Create(ctx context.Context, creatorUserID, name string) (Patient, error) {
	creatorUserID = strings.TrimSpace(creatorUserID)
	name = strings.TrimSpace(name)
	if creatorUserID == "" || name == "" {
		return Patient{}, ErrInvalidInput
	}

	p := Patient{
		ID:            uuid.NewString(),
		Name:          name,
		CreatorUserID: creatorUserID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Save(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// Save asegura la entrada en el índice del creador y sobreescribe el registro.
// Indexa primero: si el Put falla queda una entrada sin registro, que los
// listados ya descartan. Nunca toca los índices de cuentas compartidas.
func (s *Service) Save(ctx context.Context, p Patient) error {
	if _, err := s.store.IndexAdd(ctx, keys.OwnerPatients(p.CreatorUserID), p.ID); err != nil {
		return fmt.Errorf("index patient: %w", err)
	}
	if err := kv.PutJSON(ctx, s.store, keys.KindPatient, p.ID, p); err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrNotFound
	}

	p, err := kv.GetJSON[Patient](ctx, s.store, keys.KindPatient, id)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Patient{}, ErrNotFound
		}
		return Patient{}, err
	}

	shared, err := s.store.IndexMembers(ctx, keys.PatientSharedWith(id))
	if err != nil {
		return Patient{}, err
	}
	p.SharedWith = shared
	return p, nil
}

// ListForUser resuelve el índice del usuario y descarta silenciosamente las
// entradas cuyo registro ya no existe.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Patient, error) {
	ids, err := s.store.IndexMembers(ctx, keys.OwnerPatients(userID))
	if err != nil {
		return nil, err
	}

	out := make([]Patient, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b Patient) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// Delete borra el paciente en cascada. El conjunto de índices a limpiar es
// exactamente {creator} ∪ p.SharedWith tomado del registro recibido.
// El registro principal se borra al final: si algo falla a mitad, reintentar
// Delete completa la limpieza.
func (s *Service) Delete(ctx context.Context, p Patient) error {
	for _, userID := range p.AccessSet() {
		if err := s.store.IndexRemove(ctx, keys.OwnerPatients(userID), p.ID); err != nil {
			return fmt.Errorf("unindex patient for %s: %w", userID, err)
		}
	}
	if err := s.store.IndexDrop(ctx, keys.PatientSharedWith(p.ID)); err != nil {
		return fmt.Errorf("drop shared set: %w", err)
	}

	medIDs, err := s.store.IndexMembers(ctx, keys.PatientMedications(p.ID))
	if err != nil {
		return fmt.Errorf("list medications: %w", err)
	}
	for _, mid := range medIDs {
		if err := s.store.LogDrop(ctx, keys.MedicationTakenLog(mid)); err != nil {
			return fmt.Errorf("drop intake log: %w", err)
		}
		if err := s.store.Delete(ctx, keys.KindMedication, mid); err != nil {
			return fmt.Errorf("delete medication: %w", err)
		}
	}
	if err := s.store.IndexDrop(ctx, keys.PatientMedications(p.ID)); err != nil {
		return fmt.Errorf("drop medication index: %w", err)
	}

	if err := s.store.Delete(ctx, keys.KindPatient, p.ID); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}
