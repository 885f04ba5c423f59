// Package apiclient talks JSON to the documentation API. Every request carries
// the bearer token from the injected TokenProvider; a 401 evicts the stored
// credentials and announces an UNAUTHORIZED event instead of navigating
// anywhere itself.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"techdocs/middleware"
	"techdocs/pkg/logger"
	"techdocs/socket"
)

// Evictor drops stored credentials after the server rejects them. held
// reports whether a session was actually in use.
type Evictor interface {
	ClearCredentials(ctx context.Context) (held bool, err error)
}

type Options struct {
	BaseURL   string
	Tokens    middleware.TokenProvider
	Evictor   Evictor
	Hub       *socket.Hub
	Transport http.RoundTripper // defaults to http.DefaultTransport
}

type Client struct {
	baseURL string
	http    *http.Client
	evictor Evictor
	hub     *socket.Hub
}

func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", opts.BaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", opts.BaseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		evictor: opts.Evictor,
		hub:     opts.Hub,
	}

	var rt http.RoundTripper = &middleware.AuthTransport{Next: opts.Transport, Tokens: opts.Tokens}
	rt = &middleware.UnauthorizedTransport{Next: rt, OnUnauthorized: c.evict}
	rt = &middleware.LoggingTransport{Next: rt}
	// No timeout: requests run until the server answers or ctx ends.
	c.http = &http.Client{Transport: rt}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. in is JSON-encoded when non-nil; a 2xx body is
// decoded into out when out is non-nil. Failures are returned once, never
// retried.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		logger.Sugar.Debugf("%s %s failed: %v", method, path, apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) evict(req *http.Request) {
	logger.Sugar.Warnf("Server rejected credentials for %s %s, clearing session", req.Method, req.URL.Path)
	var held bool
	if c.evictor != nil {
		var err error
		if held, err = c.evictor.ClearCredentials(req.Context()); err != nil {
			logger.Sugar.Errorf("Failed to clear stored credentials: %v", err)
		}
	}
	c.hub.Publish(req.Context(), socket.Event{
		Type:        socket.UnauthorizedType,
		Message:     req.URL.Path,
		SessionLost: held,
	})
}
