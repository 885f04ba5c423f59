package middleware

import (
	"net/http"
	"time"

	"techdocs/pkg/logger"
)

// LoggingTransport logs one line per request with its status and duration.
type LoggingTransport struct {
	Next http.RoundTripper
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := next(t.Next).RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logger.Sugar.Warnf("[REQUEST] %s %s | Error: %v | Duration: %v", req.Method, req.URL.Path, err, duration)
		return nil, err
	}
	logger.Sugar.Debugf("[REQUEST] %s %s | Status: %d | Duration: %v", req.Method, req.URL.Path, resp.StatusCode, duration)
	return resp, nil
}
