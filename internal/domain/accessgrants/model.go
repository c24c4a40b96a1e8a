package accessgrants

// Grant describe el acceso compartido de una cuenta a un paciente.
// No se persiste como registro propio: existe mientras GranteeUserID esté en
// el conjunto patient_shared_with del paciente.
type Grant struct {
	PatientID     string
	OwnerUserID   string // quien comparte (creador)
	GranteeUserID string // cuenta con acceso compartido

	// Created es false cuando el grant ya existía (share idempotente).
	Created bool
}
