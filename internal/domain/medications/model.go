package medications

import (
	"time"

	"medibot/internal/domain/frequency"
)

// Medication es un plan de dosis (medicamento, dosis, frecuencia) de un
// único paciente.
type Medication struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`

	MedicineName string              `json:"medicine_name"`
	Dosage       string              `json:"dosage"` // texto libre: "200mg", "2 pills"
	Frequency    frequency.Frequency `json:"frequency"`

	OwnerUserID string     `json:"owner_user_id"`
	LastTaken   *time.Time `json:"last_taken,omitempty"`

	// Copia del nombre del paciente al momento de guardar; se refresca en cada Save.
	PatientName string `json:"patient_name"`

	CreatedAt time.Time `json:"created_at"`
}
