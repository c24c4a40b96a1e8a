package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"medibot/internal/domain/keys"
	"medibot/internal/platform/logger"
	"medibot/internal/ports/kv"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

// Service guarda preferencias por cuenta. Hoy solo la zona horaria.
type Service struct {
	store kv.Store
	log   logger.Logger
}

func NewService(store kv.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, log: log}
}

// SetTimezone valida el identificador IANA antes de escribirlo; un valor
// inválido nunca llega al store.
func (s *Service) SetTimezone(ctx context.Context, userID, tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "local") {
		return nil, ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}

	if err := s.store.ScalarSet(ctx, keys.UserTimezone(userID), loc.String()); err != nil {
		return nil, err
	}
	return loc, nil
}

// Location devuelve la zona del usuario o UTC si no la configuró.
func (s *Service) Location(ctx context.Context, userID string) (*time.Location, error) {
	tz, ok, err := s.store.ScalarGet(ctx, keys.UserTimezone(userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		// Solo pasa si cambió la base tzdata entre escritura y lectura.
		s.log.Warn("stored timezone no longer loads", map[string]any{"user_id": userID, "tz": tz})
		return time.UTC, nil
	}
	return loc, nil
}
