package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/soyeahso/cftutor/internal/logging"
)

var snapshotBucket = []byte("snapshots")

// BoltStore keeps each slot as a key in a single bbolt bucket.
type BoltStore struct {
	db  *bolt.DB
	log *logging.Logger
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string, log *logging.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating bolt directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	l := log.Sub("store")
	l.Debug().Str("path", path).Msg("bolt store opened")
	return &BoltStore{db: db, log: l}, nil
}

// Get returns the blob stored in slot.
func (s *BoltStore) Get(_ context.Context, slot string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotBucket).Get([]byte(slot))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Put overwrites slot with data.
func (s *BoltStore) Put(_ context.Context, slot string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(slot), data)
	})
}

// Delete removes slot.
func (s *BoltStore) Delete(_ context.Context, slot string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Delete([]byte(slot))
	})
}

// Close closes the bolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
