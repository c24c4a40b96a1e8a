package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"medibot/internal/domain/accessgrants"
	"medibot/internal/domain/frequency"
	"medibot/internal/domain/medications"
	"medibot/internal/domain/patients"
	"medibot/internal/domain/schedule"
	"medibot/internal/domain/users"
	"medibot/internal/notify"
)

// intakeLogLimit es cuántas tomas muestra el log de un medicamento.
const intakeLogLimit = 10

func (m *Machine) runCommand(ctx context.Context, t *turn, cmd command) (State, error) {
	switch cmd.Name {
	case CmdAddMedication:
		ps, err := m.patients.ListForUser(ctx, t.userID)
		if err != nil {
			return Start{}, err
		}
		m.reply(ctx, t, textAskPatientForMedication, patientKeyboard(ps, true))
		return SelectMedicationPatient{}, nil

	case CmdAddPatient:
		m.reply(ctx, t, textAskPatientName, nil)
		return ReceivePatientName{}, nil

	case CmdPatients:
		ps, err := m.patients.ListForUser(ctx, t.userID)
		if err != nil {
			return Start{}, err
		}
		m.reply(ctx, t, textPickPatient, patientKeyboard(ps, true))
		return SelectPatient{}, nil

	case CmdTake:
		return m.offerPatients(ctx, t, textPickPatientToTake, TakeMedicine{})

	case CmdSharePatient:
		return m.offerPatients(ctx, t, textPickPatientToShare, SelectSharePatient{})

	case CmdGetAll:
		return m.getAll(ctx, t)

	case CmdTimezone:
		return m.timezone(ctx, t, cmd.Args)

	default:
		m.reply(ctx, t, textHelp, nil)
		return Start{}, nil
	}
}

// offerPatients muestra un selector sin "add new"; sin pacientes no hay
// nada que elegir y el flujo termina.
func (m *Machine) offerPatients(ctx context.Context, t *turn, prompt string, next State) (State, error) {
	ps, err := m.patients.ListForUser(ctx, t.userID)
	if err != nil {
		return Start{}, err
	}
	if len(ps) == 0 {
		m.reply(ctx, t, textNoPatients, nil)
		return Start{}, nil
	}
	m.reply(ctx, t, prompt, patientKeyboard(ps, false))
	return next, nil
}

// offerMedications muestra el selector de planes del paciente.
func (m *Machine) offerMedications(ctx context.Context, t *turn, p patients.Patient, prompt string, next State) (State, error) {
	ms, err := m.meds.ListByPatient(ctx, p.ID)
	if err != nil {
		return Start{}, err
	}
	if len(ms) == 0 {
		m.reply(ctx, t, fmt.Sprintf(textNoMedications, p.Name), nil)
		return Start{}, nil
	}
	m.reply(ctx, t, fmt.Sprintf(prompt, p.Name), medicationKeyboard(ms, m.now()))
	return next, nil
}

func (m *Machine) getAll(ctx context.Context, t *turn) (State, error) {
	ps, err := m.patients.ListForUser(ctx, t.userID)
	if err != nil {
		return Start{}, err
	}
	if len(ps) == 0 {
		m.reply(ctx, t, textNoPatients, nil)
		return Start{}, nil
	}
	loc, err := m.users.Location(ctx, t.userID)
	if err != nil {
		return Start{}, err
	}

	now := m.now()
	var b strings.Builder
	for i, p := range ps {
		ms, err := m.meds.ListByPatient(ctx, p.ID)
		if err != nil {
			return Start{}, err
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Name + ":")
		if len(ms) == 0 {
			b.WriteString("\nNo medications yet.")
		}
		for _, med := range ms {
			b.WriteString("\n" + schedule.Summary(med, now, loc))
		}
	}
	m.reply(ctx, t, b.String(), nil)
	return Start{}, nil
}

func (m *Machine) timezone(ctx context.Context, t *turn, arg string) (State, error) {
	if arg == "" {
		loc, err := m.users.Location(ctx, t.userID)
		if err != nil {
			return Start{}, err
		}
		m.reply(ctx, t, fmt.Sprintf(textTimezoneCurrent, loc), nil)
		return Start{}, nil
	}

	loc, err := m.users.SetTimezone(ctx, t.userID, arg)
	if errors.Is(err, users.ErrInvalidTimezone) {
		m.reply(ctx, t, textTimezoneInvalid, nil)
		return Start{}, nil
	}
	if err != nil {
		return Start{}, err
	}
	m.reply(ctx, t, fmt.Sprintf(textTimezoneSet, loc), nil)
	return Start{}, nil
}

// --- alta de medicamento ---

func (m *Machine) onSelectMedicationPatient(ctx context.Context, t *turn) (State, error) {
	if t.payload() == PayloadAddNew {
		m.reply(ctx, t, textAskPatientName, nil)
		return ReceiveName{}, nil
	}
	p, err := m.grants.Authorize(ctx, t.payload(), t.userID)
	if err != nil {
		return SelectMedicationPatient{}, err
	}
	m.reply(ctx, t, textAskMedicine, nil)
	return ReceiveMedicine{PatientID: p.ID}, nil
}

func (m *Machine) onReceiveName(ctx context.Context, t *turn, s ReceiveName) (State, error) {
	name := t.text()
	if name == "" {
		m.reply(ctx, t, textMissingText, nil)
		return s, nil
	}
	p, err := m.patients.Create(ctx, t.userID, name)
	if err != nil {
		return s, err
	}
	m.reply(ctx, t, fmt.Sprintf(textPatientCreated, p.Name)+" "+textAskMedicine, nil)
	return ReceiveMedicine{PatientID: p.ID}, nil
}

func (m *Machine) onReceiveMedicine(ctx context.Context, t *turn, s ReceiveMedicine) (State, error) {
	medicine := t.text()
	if medicine == "" {
		m.reply(ctx, t, textMissingText, nil)
		return s, nil
	}
	if _, err := m.grants.Authorize(ctx, s.PatientID, t.userID); err != nil {
		return s, err
	}
	m.reply(ctx, t, textAskDosage, nil)
	return ReceiveDosage{PatientID: s.PatientID, Medicine: medicine}, nil
}

func (m *Machine) onReceiveDosage(ctx context.Context, t *turn, s ReceiveDosage) (State, error) {
	dosage := t.text()
	if dosage == "" {
		m.reply(ctx, t, textMissingText, nil)
		return s, nil
	}
	if _, err := m.grants.Authorize(ctx, s.PatientID, t.userID); err != nil {
		return s, err
	}
	m.reply(ctx, t, textAskFrequency, nil)
	return ReceiveFrequency{PatientID: s.PatientID, Medicine: s.Medicine, Dosage: dosage}, nil
}

func (m *Machine) onReceiveFrequency(ctx context.Context, t *turn, s ReceiveFrequency) (State, error) {
	freq, err := frequency.Parse(t.text())
	if err != nil {
		m.reply(ctx, t, textFrequencyReprompt, nil)
		return s, nil
	}

	p, err := m.grants.Authorize(ctx, s.PatientID, t.userID)
	if err != nil {
		return s, err
	}
	med, err := m.meds.Create(ctx, medications.CreateInput{
		PatientID:    p.ID,
		OwnerUserID:  t.userID,
		MedicineName: s.Medicine,
		Dosage:       s.Dosage,
		Frequency:    freq,
	})
	if err != nil {
		return s, err
	}

	m.reply(ctx, t, fmt.Sprintf(textMedicationAdded, med.MedicineName, med.Dosage, med.Frequency, p.Name), nil)
	return Start{}, nil
}

// --- pacientes ---

func (m *Machine) onReceivePatientName(ctx context.Context, t *turn, s ReceivePatientName) (State, error) {
	name := t.text()
	if name == "" {
		m.reply(ctx, t, textMissingText, nil)
		return s, nil
	}
	p, err := m.patients.Create(ctx, t.userID, name)
	if err != nil {
		return s, err
	}
	m.reply(ctx, t, fmt.Sprintf(textPatientCreated, p.Name), nil)
	return Start{}, nil
}

func (m *Machine) onSelectPatient(ctx context.Context, t *turn) (State, error) {
	if t.payload() == PayloadAddNew {
		m.reply(ctx, t, textAskPatientName, nil)
		return ReceivePatientName{}, nil
	}
	p, err := m.grants.Authorize(ctx, t.payload(), t.userID)
	if err != nil {
		return SelectPatient{}, err
	}
	m.reply(ctx, t, fmt.Sprintf(textPatientOps, p.Name), patientOpsKeyboard())
	return PatientOps{PatientID: p.ID}, nil
}

func (m *Machine) onPatientOps(ctx context.Context, t *turn, s PatientOps) (State, error) {
	p, err := m.grants.Authorize(ctx, s.PatientID, t.userID)
	if err != nil {
		return s, err
	}

	switch t.payload() {
	case OpTake:
		return m.offerMedications(ctx, t, p, textPickMedToTake, TakeMedicineFinal{PatientID: p.ID})

	case OpMedicationLog:
		return m.offerMedications(ctx, t, p, textPickMedForLog, MedicineLog{PatientID: p.ID})

	case OpListMedication:
		return m.listMedications(ctx, t, p)

	case OpSharePatient:
		m.reply(ctx, t, fmt.Sprintf(textAskShareAccount, p.Name), nil)
		return ReceiveUserForSharePatient{PatientID: p.ID}, nil

	case OpDeletePatient:
		// Una cuenta compartida solo puede quitarse el acceso a sí misma.
		if !p.IsCreator(t.userID) {
			if err := m.grants.Unshare(ctx, &p, t.userID); err != nil {
				return s, err
			}
			m.reply(ctx, t, fmt.Sprintf(textPatientUnshared, p.Name), nil)
			return Start{}, nil
		}
		if err := m.patients.Delete(ctx, p); err != nil {
			return s, err
		}
		m.reply(ctx, t, fmt.Sprintf(textPatientDeleted, p.Name), nil)
		return Start{}, nil

	default:
		m.reply(ctx, t, textPickAnOption, patientOpsKeyboard())
		return s, nil
	}
}

func (m *Machine) listMedications(ctx context.Context, t *turn, p patients.Patient) (State, error) {
	ms, err := m.meds.ListByPatient(ctx, p.ID)
	if err != nil {
		return Start{}, err
	}
	if len(ms) == 0 {
		m.reply(ctx, t, fmt.Sprintf(textNoMedications, p.Name), nil)
		return Start{}, nil
	}
	loc, err := m.users.Location(ctx, t.userID)
	if err != nil {
		return Start{}, err
	}

	medications.SortByLastTaken(ms)
	now := m.now()
	lines := make([]string, 0, len(ms)+1)
	lines = append(lines, p.Name+":")
	for _, med := range ms {
		lines = append(lines, schedule.Summary(med, now, loc))
	}
	m.reply(ctx, t, strings.Join(lines, "\n"), nil)
	return Start{}, nil
}

// --- tomas ---

func (m *Machine) onTakeMedicine(ctx context.Context, t *turn) (State, error) {
	p, err := m.grants.Authorize(ctx, t.payload(), t.userID)
	if err != nil {
		return TakeMedicine{}, err
	}
	return m.offerMedications(ctx, t, p, textPickMedToTake, TakeMedicineFinal{PatientID: p.ID})
}

// medicationOf carga el plan elegido y verifica que sea del paciente de la
// sesión; un payload de otro paciente se trata como inexistente.
func (m *Machine) medicationOf(ctx context.Context, p patients.Patient, medicationID string) (medications.Medication, error) {
	med, err := m.meds.GetByID(ctx, medicationID)
	if err != nil {
		return medications.Medication{}, err
	}
	if med.PatientID != p.ID {
		return medications.Medication{}, medications.ErrNotFound
	}
	return med, nil
}

func (m *Machine) onTakeMedicineFinal(ctx context.Context, t *turn, s TakeMedicineFinal) (State, error) {
	p, err := m.grants.Authorize(ctx, s.PatientID, t.userID)
	if err != nil {
		return s, err
	}
	med, err := m.medicationOf(ctx, p, t.payload())
	if err != nil {
		return s, err
	}
	med, err = m.meds.MarkTaken(ctx, med.ID)
	if err != nil {
		return s, err
	}

	m.reply(ctx, t, fmt.Sprintf(textTaken, p.Name, med.MedicineName, med.Dosage), nil)
	m.broadcast(ctx,
		notify.Recipients(p.AccessSet(), t.userID),
		fmt.Sprintf(textTakenNotice, p.Name, med.MedicineName, med.Dosage),
	)
	return Start{}, nil
}

func (m *Machine) onMedicineLog(ctx context.Context, t *turn, s MedicineLog) (State, error) {
	p, err := m.grants.Authorize(ctx, s.PatientID, t.userID)
	if err != nil {
		return s, err
	}
	med, err := m.medicationOf(ctx, p, t.payload())
	if err != nil {
		return s, err
	}
	entries, err := m.meds.IntakeLog(ctx, med.ID, intakeLogLimit)
	if err != nil {
		return s, err
	}
	if len(entries) == 0 {
		m.reply(ctx, t, fmt.Sprintf(textNeverTaken, med.MedicineName), nil)
		return Start{}, nil
	}
	loc, err := m.users.Location(ctx, t.userID)
	if err != nil {
		return s, err
	}

	m.reply(ctx, t, renderIntakeLog(p, med, entries, m.now(), loc), nil)
	return Start{}, nil
}

// renderIntakeLog lista las tomas de la más reciente a la más antigua.
func renderIntakeLog(p patients.Patient, med medications.Medication, entries []time.Time, now time.Time, loc *time.Location) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, fmt.Sprintf(textLogHeader, med.MedicineName, p.Name))
	for _, at := range slices.Backward(entries) {
		line := "- " + schedule.RenderAbsolute(at, loc)
		if ago := schedule.RenderAgo(at, now, loc); ago != schedule.RenderAbsolute(at, loc) {
			line += " (" + ago + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// --- compartir ---

func (m *Machine) onSelectSharePatient(ctx context.Context, t *turn) (State, error) {
	p, err := m.grants.Authorize(ctx, t.payload(), t.userID)
	if err != nil {
		return SelectSharePatient{}, err
	}
	m.reply(ctx, t, fmt.Sprintf(textAskShareAccount, p.Name), nil)
	return ReceiveUserForSharePatient{PatientID: p.ID}, nil
}

func (m *Machine) onReceiveUserForSharePatient(ctx context.Context, t *turn, s ReceiveUserForSharePatient) (State, error) {
	account, err := accessgrants.ParseAccountID(t.text())
	if err != nil {
		m.reply(ctx, t, textShareReprompt, nil)
		return s, nil
	}

	p, err := m.grants.Authorize(ctx, s.PatientID, t.userID)
	if err != nil {
		return s, err
	}
	g, err := m.grants.Share(ctx, &p, account)
	if errors.Is(err, accessgrants.ErrInvalidInput) {
		m.reply(ctx, t, fmt.Sprintf(textShareSelf, p.Name), nil)
		return s, nil
	}
	if err != nil {
		return s, err
	}

	if !g.Created {
		m.reply(ctx, t, fmt.Sprintf(textAlreadyShared, p.Name, account), nil)
		return Start{}, nil
	}
	m.reply(ctx, t, fmt.Sprintf(textShared, p.Name, account), nil)
	m.broadcast(ctx, []string{account}, fmt.Sprintf(textSharedWithYou, p.Name))
	return Start{}, nil
}
