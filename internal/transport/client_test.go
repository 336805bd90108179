package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-ask-client/internal/pkg/logger"
)

// stubAuth flips to a second token once Refresh is called.
type stubAuth struct {
	token      string
	refreshed  atomic.Int32
	refreshErr error
}

func (a *stubAuth) Token(ctx context.Context) (string, error) {
	if a.refreshed.Load() > 0 {
		return a.token + "-refreshed", nil
	}
	return a.token, nil
}

func (a *stubAuth) Refresh(ctx context.Context) error {
	if a.refreshErr != nil {
		return a.refreshErr
	}
	a.refreshed.Add(1)
	return nil
}

func TestClientRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, NewStaticAuthProvider("tok-123"), logger.NewNopLogger())
	var out map[string]bool
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "/sessions/1/rename", map[string]string{"title": "x"}, &out))

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
	assert.True(t, out["ok"])
}

func TestClientRetriesOnceAfter401(t *testing.T) {
	var calls atomic.Int32
	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("Authorization"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	auth := &stubAuth{token: "old"}
	c := New(srv.URL, auth, logger.NewNopLogger())
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "/sessions", nil, nil))

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), auth.refreshed.Load())
	require.Len(t, tokens, 2)
	assert.Equal(t, "Bearer old", tokens[0])
	assert.Equal(t, "Bearer old-refreshed", tokens[1])
}

func TestClientSecond401IsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"token revoked"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &stubAuth{token: "old"}, logger.NewNopLogger())
	err := c.DoJSON(context.Background(), http.MethodGet, "/sessions", nil, nil)

	assert.Equal(t, int32(2), calls.Load())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "token revoked", apiErr.Message)
}

func TestClientRefreshFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	auth := &stubAuth{token: "old", refreshErr: assert.AnError}
	c := New(srv.URL, auth, logger.NewNopLogger())
	err := c.DoJSON(context.Background(), http.MethodGet, "/sessions", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestClientErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "envelope message", status: http.StatusNotFound, body: `{"success":false,"message":"session not found"}`, message: "session not found"},
		{name: "non-json body falls back to status text", status: http.StatusBadGateway, body: `<html>oops</html>`, message: "Bad Gateway"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, NewStaticAuthProvider("t"), logger.NewNopLogger())
			err := c.DoJSON(context.Background(), http.MethodGet, "/sessions/99", nil, nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestClientCancelledContextNeverDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":"fresh"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, NewStaticAuthProvider("t"), logger.NewNopLogger())

	out := map[string]string{"value": "stale"}
	cancel()
	err := c.DoJSON(ctx, http.MethodGet, "/sessions", nil, &out)

	require.Error(t, err)
	assert.Equal(t, "stale", out["value"], "an aborted fetch must not commit results")
}

func TestClientStreamPassesNon2xxThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"message":"quota exceeded"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, NewStaticAuthProvider("t"), logger.NewNopLogger())
	resp, err := c.Stream(context.Background(), http.MethodPost, "/ask", map[string]string{"question": "q"})

	require.NoError(t, err, "the ask layer decides what a non-stream response means")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
