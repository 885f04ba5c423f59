package middleware

import (
	"context"
	"fmt"
	"net/http"
)

// TokenProvider supplies the bearer token for outgoing requests. An empty
// token means the request goes out without credentials.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// AuthTransport sets "Authorization: Bearer <token>" on every request when
// the provider has a token.
type AuthTransport struct {
	Next   http.RoundTripper
	Tokens TokenProvider
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Tokens == nil {
		return next(t.Next).RoundTrip(req)
	}

	token, err := t.Tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("read auth token: %w", err)
	}
	if token == "" {
		return next(t.Next).RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	return next(t.Next).RoundTrip(req)
}

func next(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
