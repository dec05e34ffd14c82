// internal/storage/storage.go
package storage

import "errors"

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the interface all storage implementations must satisfy.
// Values are opaque byte slices; callers own their encoding.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Slot access
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Describer is an optional interface for backends that can report where
// their data lives, for startup logging.
type Describer interface {
	Describe() string
}
