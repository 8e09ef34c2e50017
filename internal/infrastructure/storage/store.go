// internal/infrastructure/storage/store.go
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing is stored under the key
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key/value storage owned by one browsing session.
// Values are opaque serialized documents written whole on every mutation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
