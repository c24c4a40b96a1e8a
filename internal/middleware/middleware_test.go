package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"medibot/internal/platform/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestWebhookSecret(t *testing.T) {
	h := WebhookSecret("s3cret")(okHandler)

	cases := []struct {
		header string
		want   int
	}{
		{"s3cret", http.StatusNoContent},
		{"wrong", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil)
		if tc.header != "" {
			req.Header.Set(SecretTokenHeader, tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.header)
	}
}

func TestWebhookSecret_EmptyDisablesCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	WebhookSecret("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecoverLogsPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZap(zap.New(core))

	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := logs.FilterMessage("panic recovered").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "boom", entries[0].ContextMap()["panic"])
	}
}
