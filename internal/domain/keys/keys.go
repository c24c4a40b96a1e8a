// Package keys define el esquema de claves persistidas. Es el contrato de
// layout compartido por todos los backends.
package keys

import "medibot/internal/ports/kv"

const (
	KindPatient    kv.Kind = "patient"
	KindMedication kv.Kind = "medication"
)

// OwnerPatients es el conjunto de pacientes visibles para un usuario
// (creados por él o compartidos con él).
func OwnerPatients(userID string) string { return "owner_patients:" + userID }

// PatientSharedWith es el conjunto de cuentas con acceso compartido.
func PatientSharedWith(patientID string) string { return "patient_shared_with:" + patientID }

func PatientMedications(patientID string) string { return "patient_medications:" + patientID }

func MedicationTakenLog(medicationID string) string { return "medication_taken_log:" + medicationID }

func UserTimezone(userID string) string { return "user_timezone:" + userID }

func Session(chatID string) string { return "session:" + chatID }
