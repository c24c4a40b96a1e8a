package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"medibot/internal/domain/keys"
	"medibot/internal/domain/patients"
	"medibot/internal/ports/kv"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidAccount = errors.New("invalid account identifier")
	ErrForbidden      = errors.New("forbidden")
)

// PatientReader es lo único que el ACL necesita de patients.
type PatientReader interface {
	GetByID(ctx context.Context, id string) (patients.Patient, error)
}

type Service struct {
	store    kv.Store
	patients PatientReader
}

func NewService(store kv.Store, patients PatientReader) *Service {
	return &Service{
		store:    store,
		patients: patients,
	}
}

// ParseAccountID valida un identificador de cuenta de la plataforma
// (entero positivo) y lo normaliza.
func ParseAccountID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return "", ErrInvalidAccount
	}
	return strconv.FormatUint(n, 10), nil
}

// Share da acceso a granteeUserID. Es idempotente: compartir dos veces con la
// misma cuenta no duplica nada. Ambas escrituras son set-add atómicos en el
// store, así que shares concurrentes no se pierden. Created lo decide el
// set-add sobre patient_shared_with, que va último: de dos shares
// simultáneos solo uno lo ve en true.
func (s *Service) Share(ctx context.Context, p *patients.Patient, granteeUserID string) (Grant, error) {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return Grant{}, ErrInvalidInput
	}
	grantee, err := ParseAccountID(granteeUserID)
	if err != nil {
		return Grant{}, err
	}
	if p.IsCreator(grantee) {
		return Grant{}, fmt.Errorf("%w: account already owns the patient", ErrInvalidInput)
	}

	if _, err := s.store.IndexAdd(ctx, keys.OwnerPatients(grantee), p.ID); err != nil {
		return Grant{}, fmt.Errorf("share: %w", err)
	}
	created, err := s.store.IndexAdd(ctx, keys.PatientSharedWith(p.ID), grantee)
	if err != nil {
		return Grant{}, fmt.Errorf("share: %w", err)
	}

	if !slices.Contains(p.SharedWith, grantee) {
		p.SharedWith = append(p.SharedWith, grantee)
		slices.Sort(p.SharedWith)
	}
	return Grant{
		PatientID:     p.ID,
		OwnerUserID:   p.CreatorUserID,
		GranteeUserID: grantee,
		Created:       created,
	}, nil
}

// Unshare revoca el acceso de una cuenta compartida. Nunca aplica al creador.
func (s *Service) Unshare(ctx context.Context, p *patients.Patient, granteeUserID string) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return ErrInvalidInput
	}
	grantee := strings.TrimSpace(granteeUserID)
	if grantee == "" || p.IsCreator(grantee) {
		return ErrInvalidInput
	}

	if err := s.store.IndexRemove(ctx, keys.OwnerPatients(grantee), p.ID); err != nil {
		return fmt.Errorf("unshare: %w", err)
	}
	if err := s.store.IndexRemove(ctx, keys.PatientSharedWith(p.ID), grantee); err != nil {
		return fmt.Errorf("unshare: %w", err)
	}

	p.SharedWith = slices.DeleteFunc(p.SharedWith, func(u string) bool { return u == grantee })
	return nil
}

// CanAccess: acceso efectivo = {creator} ∪ sharedWith.
func CanAccess(p patients.Patient, userID string) bool {
	if strings.TrimSpace(userID) == "" {
		return false
	}
	return p.IsCreator(userID) || slices.Contains(p.SharedWith, userID)
}

// Authorize carga el paciente y verifica el acceso de userID.
// Devuelve patients.ErrNotFound si ya no existe y ErrForbidden si no hay acceso.
func (s *Service) Authorize(ctx context.Context, patientID, userID string) (patients.Patient, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return patients.Patient{}, err
	}
	if !CanAccess(p, userID) {
		return patients.Patient{}, ErrForbidden
	}
	return p, nil
}
