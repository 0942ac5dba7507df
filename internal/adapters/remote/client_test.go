package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

func TestReplySuccess(t *testing.T) {
	var got domain.ReplyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":"Hello from YVI","source":"AI Response"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	resp, err := c.Reply(context.Background(), domain.ReplyRequest{
		Message:   "hi",
		SessionID: "s-1",
		Settings:  &domain.Settings{Model: "m", Temperature: 0.5, MaxTokens: 10},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello from YVI", resp.Reply)
	assert.Equal(t, "AI Response", resp.Source)
	assert.Equal(t, "hi", got.Message)
	assert.Equal(t, domain.SessionID("s-1"), got.SessionID)
	require.NotNil(t, got.Settings)
	assert.Equal(t, 10, got.Settings.MaxTokens)
}

func TestReplyServerErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "error field", status: http.StatusInternalServerError, body: `{"error":"GEMINI_API_KEY not configured"}`, wantMessage: "GEMINI_API_KEY not configured"},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"Message is required"}`, wantMessage: "Message is required"},
		{name: "no body", status: http.StatusBadGateway, body: ``, wantMessage: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Reply(context.Background(), domain.ReplyRequest{Message: "hi"})

			var te *domain.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, domain.TransportServer, te.Kind)
			assert.Equal(t, tt.status, te.Status)
			assert.Equal(t, tt.wantMessage, te.Message)
		})
	}
}

func TestReplyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithReplyTimeout(50*time.Millisecond)).Reply(context.Background(), domain.ReplyRequest{Message: "hi"})

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.TransportTimeout, te.Kind)
}

func TestReplyNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Reply(context.Background(), domain.ReplyRequest{Message: "hi"})

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.TransportNetwork, te.Kind)
}

func TestReplyIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Reply(context.Background(), domain.ReplyRequest{Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeleteSession(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		path = r.URL.Path
		if r.URL.Path == "/api/chat-sessions/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Session deleted"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.True(t, c.DeleteSession(context.Background(), "abc"))
	assert.Equal(t, "/api/chat-sessions/abc", path)
	assert.False(t, c.DeleteSession(context.Background(), "missing"))
}

func TestDeleteSessionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.False(t, New(url).DeleteSession(context.Background(), "abc"))
}

func TestWithHTTPClientKeepsBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	resp, err := c.Reply(context.Background(), domain.ReplyRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Reply)
}

func TestReplyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy page</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Reply(context.Background(), domain.ReplyRequest{Message: "hi"})

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.TransportServer, te.Kind)
	assert.Equal(t, http.StatusOK, te.Status)
}
