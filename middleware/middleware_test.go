package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoAuthServer(t *testing.T, status int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Authorization", r.Header.Get("Authorization"))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthTransport(t *testing.T) {
	srv := echoAuthServer(t, http.StatusOK)

	t.Run("attaches bearer token", func(t *testing.T) {
		client := &http.Client{Transport: &AuthTransport{
			Tokens: TokenFunc(func(context.Context) (string, error) { return "abc.def", nil }),
		}}
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Bearer abc.def", resp.Header.Get("X-Seen-Authorization"))
		assert.Empty(t, req.Header.Get("Authorization"), "caller's request is not modified")
	})

	t.Run("omits header without a token", func(t *testing.T) {
		client := &http.Client{Transport: &AuthTransport{
			Tokens: TokenFunc(func(context.Context) (string, error) { return "", nil }),
		}}
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, resp.Header.Get("X-Seen-Authorization"))
	})

	t.Run("reads the provider on every request", func(t *testing.T) {
		token := "first"
		client := &http.Client{Transport: &AuthTransport{
			Tokens: TokenFunc(func(context.Context) (string, error) { return token, nil }),
		}}
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer first", resp.Header.Get("X-Seen-Authorization"))

		token = "second"
		resp, err = client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer second", resp.Header.Get("X-Seen-Authorization"))
	})

	t.Run("provider failure aborts the request", func(t *testing.T) {
		client := &http.Client{Transport: &AuthTransport{
			Tokens: TokenFunc(func(context.Context) (string, error) { return "", errors.New("store offline") }),
		}}
		_, err := client.Get(srv.URL)
		assert.ErrorContains(t, err, "store offline")
	})
}

func TestUnauthorizedTransport(t *testing.T) {
	var hits []string
	hook := func(req *http.Request) { hits = append(hits, req.URL.Path) }

	ok := echoAuthServer(t, http.StatusOK)
	denied := echoAuthServer(t, http.StatusUnauthorized)
	forbidden := echoAuthServer(t, http.StatusForbidden)

	client := &http.Client{Transport: &UnauthorizedTransport{
		Next:           &LoggingTransport{},
		OnUnauthorized: hook,
	}}

	for _, url := range []string{ok.URL + "/a", forbidden.URL + "/b"} {
		resp, err := client.Get(url)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Empty(t, hits)

	resp, err := client.Get(denied.URL + "/api/documents")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "response still reaches the caller")
	assert.Equal(t, []string{"/api/documents"}, hits)
}
