package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/platform/retry"
)

func TestDoJSON_RetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.Retry = retry.Policy{Attempts: 3, Initial: time.Millisecond}

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "/ping", nil, map[string]string{"a": "b"}, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSON_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.Retry = retry.Policy{Attempts: 5, Initial: time.Millisecond}

	err = c.DoJSON(context.Background(), http.MethodGet, "x", nil, nil, nil)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
	assert.Contains(t, he.Body, "chat not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoJSON_RelativePathNeedsBaseURL(t *testing.T) {
	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	assert.EqualError(t, err, "httpclient: relative path requires BaseURL")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&HTTPError{StatusCode: 429}))
	assert.True(t, Retryable(&HTTPError{StatusCode: 503}))
	assert.False(t, Retryable(&HTTPError{StatusCode: 403}))
	assert.False(t, Retryable(context.Canceled))
	assert.True(t, Retryable(&transportError{err: assert.AnError}))
}
