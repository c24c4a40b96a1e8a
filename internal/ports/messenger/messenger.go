package messenger

import "context"

// Button es una opción de un teclado: lo que ve el usuario y el payload opaco
// que vuelve como Selection.
type Button struct {
	Label   string
	Payload string
}

// Keyboard es una grilla de opciones, fila por fila.
type Keyboard [][]Button

// Messenger es lo que el core necesita del transporte de chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string, kb Keyboard) error
	EditMessage(ctx context.Context, chatID, messageID, text string, kb Keyboard) error
	AcknowledgeSelection(ctx context.Context, selectionID string) error
}

// Sender es el subconjunto que usa el fan-out de notificaciones.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string, kb Keyboard) error
}
