package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"medibot/internal/domain/accessgrants"
	"medibot/internal/domain/medications"
	"medibot/internal/domain/patients"
	"medibot/internal/domain/users"
	"medibot/internal/notify"
	"medibot/internal/platform/logger"
	"medibot/internal/ports/messenger"
)

var ErrEmptyEvent = errors.New("session: event without chat or sender")

// Deps son los colaboradores de la máquina. Now es opcional (time.Now).
type Deps struct {
	Sessions    Store
	Patients    *patients.Service
	Grants      *accessgrants.Service
	Medications *medications.Service
	Users       *users.Service
	Notifier    *notify.Notifier
	Messenger   messenger.Messenger
	Logger      logger.Logger
	Now         func() time.Time
}

// Machine aplica la función de transición a cada evento entrante y persiste
// el estado resultante.
type Machine struct {
	sessions Store
	patients *patients.Service
	grants   *accessgrants.Service
	meds     *medications.Service
	users    *users.Service
	notifier *notify.Notifier
	out      messenger.Messenger
	log      logger.Logger
	now      func() time.Time

	bg sync.WaitGroup
}

func NewMachine(d Deps) *Machine {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Machine{
		sessions: d.Sessions,
		patients: d.Patients,
		grants:   d.Grants,
		meds:     d.Medications,
		users:    d.Users,
		notifier: d.Notifier,
		out:      d.Messenger,
		log:      d.Logger,
		now:      d.Now,
	}
}

// turn es el contexto de un evento: quién, dónde y qué llegó.
type turn struct {
	ev     messenger.Event
	chatID string
	userID string
}

func (t *turn) text() string {
	if t.ev.Text == nil {
		return ""
	}
	return strings.TrimSpace(t.ev.Text.Text)
}

func (t *turn) payload() string {
	if t.ev.Selection == nil {
		return ""
	}
	return t.ev.Selection.Payload
}

func (t *turn) command() (command, bool) {
	if t.ev.Text == nil {
		return command{}, false
	}
	return parseCommand(t.ev.Text.Text)
}

func (t *turn) isCancel() bool {
	if t.ev.Selection != nil {
		return t.ev.Selection.Payload == PayloadCancel
	}
	cmd, ok := t.command()
	return ok && cmd.Name == CmdCancel
}

// Handle procesa un evento. Los eventos del mismo chat se serializan.
// Si la transición falla por el store, el estado previo se conserva y se
// devuelve el error; los errores de usuario se resuelven con un mensaje.
func (m *Machine) Handle(ctx context.Context, ev messenger.Event) error {
	t := &turn{ev: ev, chatID: ev.ChatID(), userID: ev.SenderID()}
	if t.chatID == "" || t.userID == "" {
		return ErrEmptyEvent
	}

	unlock := m.sessions.Lock(t.chatID)
	defer unlock()

	if ev.Selection != nil && ev.Selection.ID != "" {
		if err := m.out.AcknowledgeSelection(ctx, ev.Selection.ID); err != nil {
			m.log.Warn("acknowledge selection failed", map[string]any{"chat_id": t.chatID, "err": err})
		}
	}

	prev, err := m.sessions.Get(ctx, t.chatID)
	if err != nil {
		m.log.Error("load session failed", map[string]any{"chat_id": t.chatID, "err": err})
		m.reply(ctx, t, textTransientFailure, nil)
		return err
	}

	next, err := m.transition(ctx, t, prev)
	if err != nil {
		if next, err = m.recover(ctx, t, prev, err); err != nil {
			return err
		}
	}

	if err := m.sessions.Set(ctx, t.chatID, next); err != nil {
		m.log.Error("save session failed", map[string]any{"chat_id": t.chatID, "state": next.Name(), "err": err})
		return err
	}

	m.log.Debug("session transition", map[string]any{
		"chat_id": t.chatID,
		"from":    prev.Name(),
		"to":      next.Name(),
	})
	return nil
}

// Wait espera a que terminen las notificaciones en curso.
func (m *Machine) Wait() {
	m.bg.Wait()
}

func (m *Machine) transition(ctx context.Context, t *turn, st State) (State, error) {
	if t.isCancel() {
		m.reply(ctx, t, textCancelled, nil)
		return Start{}, nil
	}

	if cmd, ok := t.command(); ok {
		if _, idle := st.(Start); idle {
			return m.runCommand(ctx, t, cmd)
		}
		m.reply(ctx, t, textFinishOrCancel, nil)
		return st, nil
	}

	if st.ExpectsSelection() != (t.ev.Selection != nil) {
		return m.wrongShape(ctx, t, st), nil
	}

	switch s := st.(type) {
	case Start:
		m.reply(ctx, t, textDefault, nil)
		return s, nil
	case ReceiveName:
		return m.onReceiveName(ctx, t, s)
	case ReceiveMedicine:
		return m.onReceiveMedicine(ctx, t, s)
	case ReceiveDosage:
		return m.onReceiveDosage(ctx, t, s)
	case ReceiveFrequency:
		return m.onReceiveFrequency(ctx, t, s)
	case ReceivePatientName:
		return m.onReceivePatientName(ctx, t, s)
	case SelectPatient:
		return m.onSelectPatient(ctx, t)
	case SelectMedicationPatient:
		return m.onSelectMedicationPatient(ctx, t)
	case SelectSharePatient:
		return m.onSelectSharePatient(ctx, t)
	case PatientOps:
		return m.onPatientOps(ctx, t, s)
	case TakeMedicine:
		return m.onTakeMedicine(ctx, t)
	case TakeMedicineFinal:
		return m.onTakeMedicineFinal(ctx, t, s)
	case MedicineLog:
		return m.onMedicineLog(ctx, t, s)
	case ReceiveUserForSharePatient:
		return m.onReceiveUserForSharePatient(ctx, t, s)
	}
	return st, fmt.Errorf("session: unhandled state %q", st.Name())
}

// wrongShape responde a un evento que el estado no espera, sin transicionar.
func (m *Machine) wrongShape(ctx context.Context, t *turn, st State) State {
	switch {
	case st.ExpectsSelection():
		m.reply(ctx, t, textPickAnOption, nil)
	case t.ev.Selection != nil:
		if _, idle := st.(Start); idle {
			m.reply(ctx, t, textMenuExpired, nil)
		} else {
			m.reply(ctx, t, textFinishOrCancel, nil)
		}
	}
	return st
}

// recover traduce errores de dominio a un mensaje y al estado siguiente.
// Solo los errores no recuperables se devuelven.
func (m *Machine) recover(ctx context.Context, t *turn, prev State, err error) (State, error) {
	switch {
	case errors.Is(err, patients.ErrNotFound), errors.Is(err, medications.ErrNotFound):
		m.reply(ctx, t, textNotFound, nil)
		return Start{}, nil
	case errors.Is(err, accessgrants.ErrForbidden):
		m.log.Warn("access denied", map[string]any{"chat_id": t.chatID, "user_id": t.userID, "state": prev.Name()})
		m.reply(ctx, t, textForbidden, nil)
		return Start{}, nil
	default:
		m.log.Error("transition failed", map[string]any{"chat_id": t.chatID, "state": prev.Name(), "err": err})
		m.reply(ctx, t, textTransientFailure, nil)
		return prev, err
	}
}

// reply edita el mensaje del teclado si el evento fue una selección y envía
// uno nuevo si fue texto. Los fallos de transporte solo se registran: el
// efecto de dominio ya está confirmado.
func (m *Machine) reply(ctx context.Context, t *turn, text string, kb messenger.Keyboard) {
	if sel := t.ev.Selection; sel != nil && sel.MessageID != "" {
		err := m.out.EditMessage(ctx, t.chatID, sel.MessageID, text, kb)
		if err == nil {
			return
		}
		m.log.Warn("edit message failed, sending instead", map[string]any{"chat_id": t.chatID, "err": err})
	}
	if err := m.out.SendMessage(ctx, t.chatID, text, kb); err != nil {
		m.log.Warn("send message failed", map[string]any{"chat_id": t.chatID, "err": err})
	}
}

// broadcast despacha el fan-out en segundo plano, desacoplado de la
// cancelación del evento que lo originó.
func (m *Machine) broadcast(ctx context.Context, recipients []string, text string) {
	if m.notifier == nil || len(recipients) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		failures := m.notifier.FanOut(ctx, recipients, text)
		if len(failures) > 0 {
			m.log.Info("notification batch finished with failures", map[string]any{
				"recipients": len(recipients),
				"failed":     len(failures),
			})
		}
	}()
}
