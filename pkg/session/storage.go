package session

import (
	"context"
	"errors"
)

// TokenKey is the only key the session manager persists.
const TokenKey = "token"

// ErrStorageClosed is returned when a storage backend is used after Close.
var ErrStorageClosed = errors.New("session: storage is closed")

// Storage persists small string values across process restarts.
// Implementations must be safe for concurrent use. Writes are last-wins.
type Storage interface {
	// Get returns the value for key. A missing key yields ("", nil).
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
