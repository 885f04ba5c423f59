package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techdocs/middleware"
	"techdocs/socket"
	"techdocs/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeEvictor struct {
	st store.Store
}

func (e storeEvictor) ClearCredentials(ctx context.Context) (bool, error) {
	_, err := e.st.Get(ctx, "auth_token")
	held := err == nil
	return held, e.st.Delete(ctx, "auth_token", "auth_user")
}

func staticToken(token string) middleware.TokenProvider {
	return middleware.TokenFunc(func(context.Context) (string, error) { return token, nil })
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "localhost"})
	assert.ErrorContains(t, err, "scheme and host are required")

	c, err := New(Options{BaseURL: "http://localhost:8080/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestDoSendsJSONWithBearer(t *testing.T) {
	var got struct {
		method, path, contentType, auth string
		body                            map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path = r.Method, r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": 9, "title": "Runbook"}`)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Tokens: staticToken("tok")})
	require.NoError(t, err)

	var out struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, c.Post(context.Background(), "/api/documents", map[string]string{"title": "Runbook"}, &out))

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/documents", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "Runbook", got.body["title"])
	assert.Equal(t, int64(9), out.ID)
}

func TestDoErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error field", http.StatusBadRequest, `{"error":"title is required"}`, "title is required"},
		{"message field", http.StatusNotFound, `{"message":"Document not found"}`, "Document not found"},
		{"plain text body", http.StatusInternalServerError, "boom", ""},
		{"empty body", http.StatusBadGateway, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, err := New(Options{BaseURL: srv.URL})
			require.NoError(t, err)

			err = c.Get(context.Background(), "/api/documents", nil)
			require.Error(t, err)
			assert.Equal(t, tt.message, Message(err))
			assert.Equal(t, tt.status, StatusCode(err))
			assert.False(t, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestUnauthorizedEvictsAndAnnounces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := socket.NewHub()
	go hub.Run(ctx)
	sub := hub.Subscribe(4)

	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, "auth_token", "expired"))
	require.NoError(t, st.Set(ctx, "auth_user", `{"id":1}`))

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"token expired"}`)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Tokens: staticToken("expired"), Evictor: storeEvictor{st}, Hub: hub})
	require.NoError(t, err)

	err = c.Delete(ctx, "/api/documents/5", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "token expired", Message(err))
	assert.Equal(t, 1, calls, "no retry")

	_, err = st.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(ctx, "auth_user")
	assert.ErrorIs(t, err, store.ErrNotFound)

	select {
	case ev := <-sub.Send:
		assert.Equal(t, socket.UnauthorizedType, ev.Type)
		assert.Equal(t, "/api/documents/5", ev.Message)
		assert.True(t, ev.SessionLost)
	case <-time.After(time.Second):
		t.Fatal("expected an UNAUTHORIZED event")
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/api/documents", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /api/documents")
	assert.Equal(t, "", Message(err))
}
