package patients

import "context"

// NameOf expone solo el nombre visible de un paciente.
// Se usa desde medications para refrescar el nombre cacheado sin depender
// del Service completo.
func (s *Service) NameOf(ctx context.Context, patientID string) (string, error) {
	p, err := s.GetByID(ctx, patientID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}
