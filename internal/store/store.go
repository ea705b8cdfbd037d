// Package store holds the key/value backends that persist the client's
// session id across restarts.
package store

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("store key is empty")

// KV is the persisted client state: a handful of string values by key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
