package storage

import (
	"errors"
	"time"
)

var (
	ErrValueTooLarge = errors.New("stored value too large")
	ErrCorrupt       = errors.New("stored value corrupt")
)

// Backend is the raw key-value side of a Bridge. Get reports ok=false for
// absent and expired keys; errors are reserved for unreadable values and
// transport failures.
type Backend interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}
