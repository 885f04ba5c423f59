package middleware

import "net/http"

// UnauthorizedTransport calls OnUnauthorized for every 401 response. The
// response itself is returned unchanged so the caller still sees the failure.
type UnauthorizedTransport struct {
	Next           http.RoundTripper
	OnUnauthorized func(req *http.Request)
}

func (t *UnauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := next(t.Next).RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && t.OnUnauthorized != nil {
		t.OnUnauthorized(req)
	}
	return resp, nil
}
