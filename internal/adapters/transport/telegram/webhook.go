package telegram

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"medibot/internal/platform/logger"
)

const maxUpdateBody = 1 << 20

// WebhookHandler recibe updates por POST. Siempre responde 200 salvo con un
// cuerpo ilegible: Telegram reintenta los no-2xx y el usuario ya recibió un
// mensaje de error si la transición falló.
//
// @Summary      Telegram webhook
// @Description  Receives one Bot API Update and routes it to the session machine.
// @Tags         telegram
// @Accept       json
// @Produce      plain
// @Param        X-Telegram-Bot-Api-Secret-Token  header  string  true  "Webhook secret"
// @Param        update  body  Update  true  "Bot API update"
// @Success      200  {string}  string  "ok"
// @Failure      400  {string}  string  "invalid update"
// @Failure      401  {string}  string  "bad secret"
// @Router       /telegram/webhook [post]
func WebhookHandler(handler Handler, log logger.Logger) http.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var u Update
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBody)).Decode(&u); err != nil {
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}

		ev, err := ToEvent(u)
		switch {
		case errors.Is(err, ErrIgnored):
		case err != nil:
			log.Warn("malformed update dropped", map[string]any{"update_id": u.UpdateID, "err": err})
		default:
			if err := handler.Handle(r.Context(), ev); err != nil {
				log.Error("handle update failed", map[string]any{"chat_id": ev.ChatID(), "err": err})
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
