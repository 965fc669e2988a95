// Package store persists the notifier's durable state: one calendar
// snapshot per tracked configuration plus the Telegram bot's update cursor
// and subscriber list. Two interchangeable backends are provided.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mzhao129/facility-notifier/internal/config"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// Store is a small durable key-value surface. Both backends guarantee that
// a Set is atomic and visible to the next Get, which is all the change
// detector needs.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Open builds the backend selected by the configuration.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreSQLite:
		return OpenSQLite(cfg.Path)
	case config.StoreBadger:
		return OpenBadger(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
