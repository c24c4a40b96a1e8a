package telegram

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"medibot/internal/ports/messenger"
)

// ErrIgnored marca updates que no llevan nada para el bot (stickers,
// ediciones, mensajes de otros bots).
var ErrIgnored = errors.New("telegram: update ignored")

var validate = validator.New()

// ToEvent traduce un Update al evento del core.
func ToEvent(u Update) (messenger.Event, error) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if err := validate.Struct(cq); err != nil {
			return messenger.Event{}, err
		}
		return messenger.Event{Selection: &messenger.Selection{
			ID:        cq.ID,
			ChatID:    strconv.FormatInt(cq.Message.Chat.ID, 10),
			SenderID:  strconv.FormatInt(cq.From.ID, 10),
			MessageID: strconv.FormatInt(cq.Message.MessageID, 10),
			Payload:   cq.Data,
		}}, nil

	case u.Message != nil:
		msg := u.Message
		if err := validate.Struct(msg); err != nil {
			return messenger.Event{}, err
		}
		if msg.From.IsBot {
			return messenger.Event{}, ErrIgnored
		}

		text := msg.Text
		if msg.UsersShared != nil {
			if err := validate.Struct(msg.UsersShared); err != nil {
				return messenger.Event{}, err
			}
			// Un contacto compartido equivale a escribir su id.
			text = strconv.FormatInt(msg.UsersShared.Users[0].UserID, 10)
		}
		if text == "" {
			return messenger.Event{}, ErrIgnored
		}

		return messenger.Event{Text: &messenger.TextMessage{
			ChatID:   strconv.FormatInt(msg.Chat.ID, 10),
			SenderID: strconv.FormatInt(msg.From.ID, 10),
			Text:     text,
		}}, nil

	default:
		return messenger.Event{}, ErrIgnored
	}
}
