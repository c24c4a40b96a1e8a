package session

import (
	"time"

	"medibot/internal/domain/medications"
	"medibot/internal/domain/patients"
	"medibot/internal/domain/schedule"
	"medibot/internal/ports/messenger"
)

// Payloads fijos que viajan en las selecciones.
const (
	PayloadCancel = "cancel"
	PayloadAddNew = "add_new"

	OpTake           = "take"
	OpListMedication = "list_medication"
	OpMedicationLog  = "medication_log"
	OpSharePatient   = "share_patient"
	OpDeletePatient  = "delete_patient"
)

const (
	patientsPerRow    = 3
	medicationsPerRow = 2
)

var cancelRow = []messenger.Button{{Label: "Cancel", Payload: PayloadCancel}}

func chunk(buttons []messenger.Button, size int) messenger.Keyboard {
	kb := make(messenger.Keyboard, 0, len(buttons)/size+2)
	for start := 0; start < len(buttons); start += size {
		end := min(start+size, len(buttons))
		kb = append(kb, buttons[start:end])
	}
	return kb
}

func patientKeyboard(ps []patients.Patient, offerNew bool) messenger.Keyboard {
	buttons := make([]messenger.Button, 0, len(ps))
	for _, p := range ps {
		buttons = append(buttons, messenger.Button{Label: p.Name, Payload: p.ID})
	}
	kb := chunk(buttons, patientsPerRow)
	if offerNew {
		kb = append(kb, []messenger.Button{{Label: "Add new patient...", Payload: PayloadAddNew}})
	}
	return append(kb, cancelRow)
}

func medicationKeyboard(ms []medications.Medication, now time.Time) messenger.Keyboard {
	buttons := make([]messenger.Button, 0, len(ms))
	for _, m := range ms {
		buttons = append(buttons, messenger.Button{
			Label:   schedule.StatusEmoji(m, now) + " " + m.MedicineName,
			Payload: m.ID,
		})
	}
	return append(chunk(buttons, medicationsPerRow), cancelRow)
}

func patientOpsKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		{{Label: "Take medication", Payload: OpTake}, {Label: "List medications", Payload: OpListMedication}},
		{{Label: "Intake log", Payload: OpMedicationLog}, {Label: "Share", Payload: OpSharePatient}},
		{{Label: "Delete", Payload: OpDeletePatient}},
		cancelRow,
	}
}
