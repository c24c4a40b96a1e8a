package session

import (
	"encoding/json"
	"fmt"
)

// State es la posición conversacional de un chat. Es un tipo suma cerrado:
// solo los tipos de este paquete lo implementan, y cada uno lleva payload
// únicamente cuando el paso lo necesita.
type State interface {
	Name() string
	// ExpectsSelection indica si el paso espera una opción de teclado en vez
	// de texto libre.
	ExpectsSelection() bool
	sealed()
}

type (
	Start                   struct{}
	ReceiveName             struct{}
	ReceivePatientName      struct{}
	SelectPatient           struct{}
	SelectMedicationPatient struct{}
	SelectSharePatient      struct{}
	TakeMedicine            struct{}

	ReceiveMedicine struct{ PatientID string }
	ReceiveDosage   struct {
		PatientID string
		Medicine  string
	}
	ReceiveFrequency struct {
		PatientID string
		Medicine  string
		Dosage    string
	}

	PatientOps                 struct{ PatientID string }
	TakeMedicineFinal          struct{ PatientID string }
	MedicineLog                struct{ PatientID string }
	ReceiveUserForSharePatient struct{ PatientID string }
)

func (Start) Name() string                      { return "start" }
func (ReceiveName) Name() string                { return "receive_name" }
func (ReceivePatientName) Name() string         { return "receive_patient_name" }
func (SelectPatient) Name() string              { return "select_patient" }
func (SelectMedicationPatient) Name() string    { return "select_medication_patient" }
func (SelectSharePatient) Name() string         { return "select_share_patient" }
func (TakeMedicine) Name() string               { return "take_medicine" }
func (ReceiveMedicine) Name() string            { return "receive_medicine" }
func (ReceiveDosage) Name() string              { return "receive_dosage" }
func (ReceiveFrequency) Name() string           { return "receive_frequency" }
func (PatientOps) Name() string                 { return "patient_ops" }
func (TakeMedicineFinal) Name() string          { return "take_medicine_final" }
func (MedicineLog) Name() string                { return "medicine_log" }
func (ReceiveUserForSharePatient) Name() string { return "receive_user_for_share_patient" }

func (Start) ExpectsSelection() bool                      { return false }
func (ReceiveName) ExpectsSelection() bool                { return false }
func (ReceivePatientName) ExpectsSelection() bool         { return false }
func (SelectPatient) ExpectsSelection() bool              { return true }
func (SelectMedicationPatient) ExpectsSelection() bool    { return true }
func (SelectSharePatient) ExpectsSelection() bool         { return true }
func (TakeMedicine) ExpectsSelection() bool               { return true }
func (ReceiveMedicine) ExpectsSelection() bool            { return false }
func (ReceiveDosage) ExpectsSelection() bool              { return false }
func (ReceiveFrequency) ExpectsSelection() bool           { return false }
func (PatientOps) ExpectsSelection() bool                 { return true }
func (TakeMedicineFinal) ExpectsSelection() bool          { return true }
func (MedicineLog) ExpectsSelection() bool                { return true }
func (ReceiveUserForSharePatient) ExpectsSelection() bool { return false }

func (Start) sealed()                      {}
func (ReceiveName) sealed()                {}
func (ReceivePatientName) sealed()         {}
func (SelectPatient) sealed()              {}
func (SelectMedicationPatient) sealed()    {}
func (SelectSharePatient) sealed()         {}
func (TakeMedicine) sealed()               {}
func (ReceiveMedicine) sealed()            {}
func (ReceiveDosage) sealed()              {}
func (ReceiveFrequency) sealed()           {}
func (PatientOps) sealed()                 {}
func (TakeMedicineFinal) sealed()          {}
func (MedicineLog) sealed()                {}
func (ReceiveUserForSharePatient) sealed() {}

// envelope es la forma persistida de un State.
type envelope struct {
	Kind      string `json:"kind"`
	PatientID string `json:"patient_id,omitempty"`
	Medicine  string `json:"medicine,omitempty"`
	Dosage    string `json:"dosage,omitempty"`
}

func Marshal(st State) ([]byte, error) {
	env := envelope{Kind: st.Name()}
	switch s := st.(type) {
	case ReceiveMedicine:
		env.PatientID = s.PatientID
	case ReceiveDosage:
		env.PatientID, env.Medicine = s.PatientID, s.Medicine
	case ReceiveFrequency:
		env.PatientID, env.Medicine, env.Dosage = s.PatientID, s.Medicine, s.Dosage
	case PatientOps:
		env.PatientID = s.PatientID
	case TakeMedicineFinal:
		env.PatientID = s.PatientID
	case MedicineLog:
		env.PatientID = s.PatientID
	case ReceiveUserForSharePatient:
		env.PatientID = s.PatientID
	}
	return json.Marshal(env)
}

func Unmarshal(raw []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("session: decode state: %w", err)
	}

	switch env.Kind {
	case Start{}.Name():
		return Start{}, nil
	case ReceiveName{}.Name():
		return ReceiveName{}, nil
	case ReceivePatientName{}.Name():
		return ReceivePatientName{}, nil
	case SelectPatient{}.Name():
		return SelectPatient{}, nil
	case SelectMedicationPatient{}.Name():
		return SelectMedicationPatient{}, nil
	case SelectSharePatient{}.Name():
		return SelectSharePatient{}, nil
	case TakeMedicine{}.Name():
		return TakeMedicine{}, nil
	case ReceiveMedicine{}.Name():
		return ReceiveMedicine{PatientID: env.PatientID}, nil
	case ReceiveDosage{}.Name():
		return ReceiveDosage{PatientID: env.PatientID, Medicine: env.Medicine}, nil
	case ReceiveFrequency{}.Name():
		return ReceiveFrequency{PatientID: env.PatientID, Medicine: env.Medicine, Dosage: env.Dosage}, nil
	case PatientOps{}.Name():
		return PatientOps{PatientID: env.PatientID}, nil
	case TakeMedicineFinal{}.Name():
		return TakeMedicineFinal{PatientID: env.PatientID}, nil
	case MedicineLog{}.Name():
		return MedicineLog{PatientID: env.PatientID}, nil
	case ReceiveUserForSharePatient{}.Name():
		return ReceiveUserForSharePatient{PatientID: env.PatientID}, nil
	default:
		return nil, fmt.Errorf("session: unknown state %q", env.Kind)
	}
}
