package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, retries int) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(Options{
		BaseURL:    url,
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(Options{})
	require.Error(t, err)
}

func TestPostJSON_SendsBodyAndDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ai/prompt", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, float64(4), in["mood"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prompt":"What made today good?"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", 0)
	resp, err := c.PostJSON(context.Background(), "/api/ai/prompt", map[string]any{"mood": 4})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.NoError(t, resp.Err())

	var out struct {
		Prompt string `json:"prompt"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "What made today good?", out.Prompt)
}

func TestResponseErr_UsesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid username or PIN"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 0).PostJSON(context.Background(), "/api/auth/login", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK)

	err = resp.Err()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid username or PIN", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResponseErr_FallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 0).GetJSON(context.Background(), "/missing")
	require.NoError(t, err)
	assert.Nil(t, resp.JSON, "non-JSON bodies are dropped")

	var apiErr *APIError
	require.ErrorAs(t, resp.Err(), &apiErr)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.NotErrorIs(t, resp.Err(), ErrUnauthorized)
}

func TestRetries_ServerErrorsThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 3).GetJSON(context.Background(), "/health")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetries_ExhaustedReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to generate prompt"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 2).PostJSON(context.Background(), "/api/ai/prompt", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, int32(3), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, resp.Err(), &apiErr)
	assert.Equal(t, "Failed to generate prompt", apiErr.Message)
}

func TestNoRetryOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 5).PostJSON(context.Background(), "/api/ai/analyze", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, 1).GetJSON(context.Background(), "/health")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL, 3).GetJSON(ctx, "/health")
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestSessionCookieIsKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte(`{"success":true}`))
		case "/api/auth/status":
			c, err := r.Cookie("session")
			if err != nil || c.Value != "abc" {
				_, _ = w.Write([]byte(`{"authenticated":false}`))
				return
			}
			_, _ = w.Write([]byte(`{"authenticated":true}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.PostJSON(context.Background(), "/api/auth/login", map[string]string{"username": "ann"})
	require.NoError(t, err)

	resp, err := c.GetJSON(context.Background(), "/api/auth/status")
	require.NoError(t, err)
	var st struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, resp.Decode(&st))
	assert.True(t, st.Authenticated)
}

func TestPerRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.GetJSON(context.Background(), "/health")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPerRequestTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, MaxRetries: 2, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	resp, err := c.GetJSON(context.Background(), "/health")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCallerDeadlineIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(Options{BaseURL: srv.URL, Timeout: time.Minute})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.GetJSON(ctx, "/health")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
