package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is string-keyed persistence that survives process restarts. Reads and
// writes complete before returning.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Keys names the two entries that mirror the session.
type Keys struct {
	Token string
	User  string
}
