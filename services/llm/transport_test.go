package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_PostJSON(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, "extra", r.Header.Get("X-Extra"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	transport := NewTransport("test", Config{
		BaseURL: server.URL + "/v1/",
		Headers: map[string]string{"X-Extra": "extra"},
	})

	body, err := transport.PostJSON(context.Background(), "/echo", map[string]string{"prompt": "hi"},
		map[string]string{"x-api-key": "k"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "hi", gotBody["prompt"])
}

func TestTransport_RetriesOnlyServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{name: "server error retried", status: http.StatusBadGateway, wantCalls: 3},
		{name: "rate limit not retried", status: http.StatusTooManyRequests, wantCalls: 1},
		{name: "client error not retried", status: http.StatusBadRequest, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			transport := NewTransport("test", Config{BaseURL: server.URL, MaxRetries: 2, RetryDelay: time.Millisecond})
			_, err := transport.PostJSON(context.Background(), "/x", struct{}{}, nil)

			var provErr *ProviderError
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, tt.status, provErr.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestTransport_ConnectionRefusedIsRetryable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	transport := NewTransport("test", Config{BaseURL: "http://" + addr, MaxRetries: 1, RetryDelay: time.Millisecond})
	_, err = transport.PostJSON(context.Background(), "/x", struct{}{}, nil)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "HTTP_ERROR", provErr.Code)
	assert.True(t, provErr.Retryable)
}

func TestTransport_OversizedResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(strings.Repeat("x", 65)))
	}))
	defer server.Close()

	transport := NewTransport("test", Config{BaseURL: server.URL, MaxRetries: 2, RetryDelay: time.Millisecond})
	transport.maxBody = 64

	_, err := transport.PostJSON(context.Background(), "/x", struct{}{}, nil)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "RESPONSE_TOO_LARGE", provErr.Code)
	assert.False(t, provErr.Retryable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	transport.maxBody = 65
	body, err := transport.PostJSON(context.Background(), "/x", struct{}{}, nil)
	require.NoError(t, err)
	assert.Len(t, body, 65)
}

func TestTransport_MarshalError(t *testing.T) {
	_, err := NewTransport("test", Config{BaseURL: "http://unused"}).
		PostJSON(context.Background(), "/x", make(chan int), nil)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "MARSHAL_ERROR", provErr.Code)
	assert.False(t, provErr.Retryable)
}

func TestErrorFromResponse(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      string
		wantMessage   string
		wantRetryable bool
	}{
		{
			name:        "anthropic envelope",
			status:      http.StatusBadRequest,
			body:        `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`,
			wantCode:    "invalid_request_error",
			wantMessage: "max_tokens required",
		},
		{
			name:          "openai envelope",
			status:        http.StatusTooManyRequests,
			body:          `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			wantCode:      "requests",
			wantMessage:   "Rate limit reached",
			wantRetryable: true,
		},
		{
			name:          "plain text",
			status:        http.StatusServiceUnavailable,
			body:          " upstream overloaded \n",
			wantCode:      "UNKNOWN_ERROR",
			wantMessage:   "upstream overloaded",
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ErrorFromResponse("test", tt.status, []byte(tt.body))

			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}
