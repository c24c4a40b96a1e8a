package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medibot/internal/platform/httpclient"
	"medibot/internal/platform/retry"
	"medibot/internal/ports/messenger"
)

const (
	DefaultAPIURL = "https://api.telegram.org"

	// Margen sobre el long-poll para que el timeout HTTP no corte antes que Telegram.
	pollSlack = 10 * time.Second
)

var ErrAPI = errors.New("telegram: api error")

type Options struct {
	Token       string
	APIURL      string
	PollTimeout time.Duration
	Retry       retry.Policy
	// Transport permite inyectar un RoundTripper (tests).
	Transport http.RoundTripper
}

// Client implementa messenger.Messenger sobre la Bot API.
type Client struct {
	http        *httpclient.Client
	token       string
	pollTimeout time.Duration
}

var _ messenger.Messenger = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram: empty token")
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = retry.Policy{Attempts: 3, Initial: 500 * time.Millisecond, Max: 5 * time.Second, Jitter: true}
	}

	hc := httpclient.NewWithTransport(opts.PollTimeout+pollSlack, opts.Transport)
	hc.BaseURL = strings.TrimRight(opts.APIURL, "/")
	hc.Retry = opts.Retry

	return &Client{
		http:        hc,
		token:       opts.Token,
		pollTimeout: opts.PollTimeout,
	}, nil
}

// call invoca un método de la Bot API y decodifica el campo result.
func call[T any](ctx context.Context, c *Client, method string, in any) (T, error) {
	var resp apiResponse[T]
	err := c.http.DoJSON(ctx, http.MethodPost, "/bot"+c.token+"/"+method, nil, in, &resp)
	if err != nil {
		var zero T
		var he *httpclient.HTTPError
		if errors.As(err, &he) {
			// La Bot API describe el fallo en el cuerpo; el token no debe llegar a los logs.
			return zero, fmt.Errorf("%w: %s: %s", ErrAPI, method, describe(he))
		}
		return zero, fmt.Errorf("telegram %s: %s", method, redact(err.Error(), c.token))
	}
	if !resp.OK {
		var zero T
		return zero, fmt.Errorf("%w: %s: %s", ErrAPI, method, resp.Description)
	}
	return resp.Result, nil
}

func describe(he *httpclient.HTTPError) string {
	var body apiResponse[json.RawMessage]
	if err := json.Unmarshal([]byte(he.Body), &body); err == nil && body.Description != "" {
		return body.Description
	}
	return "status " + strconv.Itoa(he.StatusCode)
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}

func (c *Client) SendMessage(ctx context.Context, chatID, text string, kb messenger.Keyboard) error {
	id, err := parseID(chatID)
	if err != nil {
		return err
	}
	_, err = call[json.RawMessage](ctx, c, "sendMessage", sendMessageRequest{
		ChatID:      id,
		Text:        text,
		ReplyMarkup: toInlineKeyboard(kb),
	})
	return err
}

func (c *Client) EditMessage(ctx context.Context, chatID, messageID, text string, kb messenger.Keyboard) error {
	id, err := parseID(chatID)
	if err != nil {
		return err
	}
	mid, err := parseID(messageID)
	if err != nil {
		return err
	}
	_, err = call[json.RawMessage](ctx, c, "editMessageText", editMessageTextRequest{
		ChatID:      id,
		MessageID:   mid,
		Text:        text,
		ReplyMarkup: toInlineKeyboard(kb),
	})
	// Editar con el mismo contenido no es un fallo.
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (c *Client) AcknowledgeSelection(ctx context.Context, selectionID string) error {
	_, err := call[bool](ctx, c, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: selectionID})
	return err
}

// GetUpdates hace long-polling desde offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(c.pollTimeout / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	})
}

// DeleteWebhook es necesario antes de usar getUpdates si alguna vez se
// registró un webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := call[bool](ctx, c, "deleteWebhook", deleteWebhookRequest{})
	return err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid id %q", s)
	}
	return id, nil
}

func toInlineKeyboard(kb messenger.Keyboard) *inlineKeyboard {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]inlineButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]inlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineButton{Text: b.Label, CallbackData: b.Payload})
		}
		rows = append(rows, buttons)
	}
	return &inlineKeyboard{InlineKeyboard: rows}
}
