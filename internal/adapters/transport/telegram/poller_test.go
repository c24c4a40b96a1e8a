package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/platform/logger"
	"medibot/internal/ports/messenger"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []messenger.Event
	fail   bool
}

func (h *recordingHandler) Handle(ctx context.Context, ev messenger.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	if h.fail {
		return errors.New("store down")
	}
	return nil
}

func (h *recordingHandler) textsFor(chatID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.events {
		if ev.ChatID() == chatID && ev.Text != nil {
			out = append(out, ev.Text.Text)
		}
	}
	return out
}

func textUpdate(id, chat int64, text string) Update {
	return Update{UpdateID: id, Message: &Message{
		MessageID: id,
		From:      &User{ID: chat},
		Chat:      Chat{ID: chat},
		Text:      text,
	}}
}

func TestToEvent(t *testing.T) {
	ev, err := ToEvent(textUpdate(1, 100, "/take"))
	require.NoError(t, err)
	assert.Equal(t, &messenger.TextMessage{ChatID: "100", SenderID: "100", Text: "/take"}, ev.Text)

	ev, err = ToEvent(Update{UpdateID: 2, CallbackQuery: &CallbackQuery{
		ID:      "cb",
		From:    User{ID: 200},
		Message: &Message{MessageID: 9, From: &User{ID: 1, IsBot: true}, Chat: Chat{ID: 100}},
		Data:    "cancel",
	}})
	require.NoError(t, err)
	assert.Equal(t, &messenger.Selection{ID: "cb", ChatID: "100", SenderID: "200", MessageID: "9", Payload: "cancel"}, ev.Selection)

	shared := textUpdate(3, 100, "")
	shared.Message.UsersShared = &UsersShared{Users: []SharedUser{{UserID: 555}}}
	ev, err = ToEvent(shared)
	require.NoError(t, err)
	assert.Equal(t, "555", ev.Text.Text)
}

func TestToEventRejectsOrIgnores(t *testing.T) {
	_, err := ToEvent(Update{UpdateID: 1})
	assert.ErrorIs(t, err, ErrIgnored)

	_, err = ToEvent(textUpdate(2, 100, ""))
	assert.ErrorIs(t, err, ErrIgnored)

	bot := textUpdate(3, 100, "hi")
	bot.Message.From.IsBot = true
	_, err = ToEvent(bot)
	assert.ErrorIs(t, err, ErrIgnored)

	noSender := textUpdate(4, 100, "hi")
	noSender.Message.From = nil
	_, err = ToEvent(noSender)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrIgnored)

	_, err = ToEvent(Update{UpdateID: 5, CallbackQuery: &CallbackQuery{ID: "cb", From: User{ID: 1}}})
	assert.Error(t, err)
}

func TestDispatchKeepsOrderPerChatAndAdvancesOffset(t *testing.T) {
	h := &recordingHandler{}
	p := NewPoller(nil, h, logger.Nop())

	p.Dispatch(context.Background(), []Update{
		textUpdate(10, 1, "a1"),
		textUpdate(11, 2, "b1"),
		textUpdate(12, 1, "a2"),
		{UpdateID: 13},
		textUpdate(14, 2, "b2"),
		textUpdate(15, 1, "a3"),
	})

	assert.Equal(t, []string{"a1", "a2", "a3"}, h.textsFor("1"))
	assert.Equal(t, []string{"b1", "b2"}, h.textsFor("2"))
	assert.Equal(t, int64(16), p.offset)
}

func TestDispatchHandlerErrorsDoNotStopBatch(t *testing.T) {
	h := &recordingHandler{fail: true}
	p := NewPoller(nil, h, logger.Nop())

	p.Dispatch(context.Background(), []Update{textUpdate(1, 1, "x"), textUpdate(2, 1, "y")})

	assert.Equal(t, []string{"x", "y"}, h.textsFor("1"))
	assert.Equal(t, int64(3), p.offset)
}

type scriptedSource struct {
	batches [][]Update
	offsets []int64
	cancel  context.CancelFunc
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	s.offsets = append(s.offsets, offset)
	if len(s.batches) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

func TestRunPollsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{
		batches: [][]Update{{textUpdate(3, 1, "first")}, {textUpdate(4, 1, "second")}},
		cancel:  cancel,
	}
	h := &recordingHandler{}

	require.NoError(t, NewPoller(src, h, nil).Run(ctx))

	assert.Equal(t, []string{"first", "second"}, h.textsFor("1"))
	assert.Equal(t, []int64{0, 4, 5}, src.offsets)
}

func TestWebhookHandler(t *testing.T) {
	h := &recordingHandler{}
	handler := WebhookHandler(h, nil)

	rec := httptest.NewRecorder()
	body := `{"update_id":1,"message":{"message_id":1,"from":{"id":100},"chat":{"id":100},"text":"/start"}}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/start"}, h.textsFor("100"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":2}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
