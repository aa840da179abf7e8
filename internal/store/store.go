// Package store persists the conversation snapshot in a named slot.
// SQLite is the default backend; bbolt, Redis and an in-memory map are
// available through the same Store interface.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/cftutor/internal/config"
	"github.com/soyeahso/cftutor/internal/logging"
)

// ErrNotFound is returned by Get when the slot holds nothing.
var ErrNotFound = errors.New("store: slot not found")

// Store reads and overwrites opaque snapshot blobs by slot name.
type Store interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, data []byte) error
	Delete(ctx context.Context, slot string) error
	Close() error
}

// New returns the Store selected by cfg.Driver. path is used by the
// file-backed drivers.
func New(ctx context.Context, cfg config.StorageConfig, path string, log *logging.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return Open(path, log)
	case "bolt":
		return OpenBolt(path, log)
	case "redis":
		return OpenRedis(ctx, cfg.Redis, cfg.Freshness(), log)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
