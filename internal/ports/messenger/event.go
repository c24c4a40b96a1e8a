package messenger

// TextMessage es texto libre enviado por el usuario (incluye comandos).
type TextMessage struct {
	ChatID   string
	SenderID string
	Text     string
}

// Selection es la elección de una opción de un teclado ya mostrado.
type Selection struct {
	ID        string // id para acusar recibo
	ChatID    string
	SenderID  string
	MessageID string // mensaje que contenía el teclado
	Payload   string
}

// Event lleva exactamente uno de Text o Selection.
type Event struct {
	Text      *TextMessage
	Selection *Selection
}

func (e Event) ChatID() string {
	switch {
	case e.Text != nil:
		return e.Text.ChatID
	case e.Selection != nil:
		return e.Selection.ChatID
	default:
		return ""
	}
}

func (e Event) SenderID() string {
	switch {
	case e.Text != nil:
		return e.Text.SenderID
	case e.Selection != nil:
		return e.Selection.SenderID
	default:
		return ""
	}
}
