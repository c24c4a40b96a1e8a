package telegram

// Subconjunto de la Bot API que usa el bot.
// https://core.telegram.org/bots/api#available-types

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type User struct {
	ID        int64  `json:"id" validate:"required"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id" validate:"required"`
	Type string `json:"type"`
}

type Message struct {
	MessageID   int64        `json:"message_id" validate:"required"`
	From        *User        `json:"from" validate:"required"`
	Chat        Chat         `json:"chat"`
	Date        int64        `json:"date"`
	Text        string       `json:"text,omitempty"`
	UsersShared *UsersShared `json:"users_shared,omitempty"`
}

// UsersShared llega cuando el usuario elige contactos con un botón
// request_users; se usa como atajo para compartir un paciente.
type UsersShared struct {
	RequestID int64        `json:"request_id"`
	Users     []SharedUser `json:"users" validate:"min=1"`
}

type SharedUser struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type CallbackQuery struct {
	ID      string   `json:"id" validate:"required"`
	From    User     `json:"from"`
	Message *Message `json:"message" validate:"required"`
	Data    string   `json:"data"`
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64           `json:"chat_id"`
	Text        string          `json:"text"`
	ReplyMarkup *inlineKeyboard `json:"reply_markup,omitempty"`
}

type editMessageTextRequest struct {
	ChatID      int64           `json:"chat_id"`
	MessageID   int64           `json:"message_id"`
	Text        string          `json:"text"`
	ReplyMarkup *inlineKeyboard `json:"reply_markup,omitempty"`
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type deleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}

// apiResponse es el sobre de todas las respuestas de la Bot API.
type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}
