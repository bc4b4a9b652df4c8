// Package bolt implements ports.SnapshotStore on a bbolt database file, for a
// single process that wants snapshots to survive restarts without a server.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

const bucketSnapshots = "snapshots"

// Store keeps one JSON snapshot per router ID in a bucket.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize snapshot bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Save replaces the snapshot of routerID.
func (s *Store) Save(ctx context.Context, routerID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Put([]byte(routerID), data)
	})
}

// Load reads the snapshot of routerID.
func (s *Store) Load(ctx context.Context, routerID string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSnapshots)).Get([]byte(routerID))
		if v == nil {
			return domain.ErrSnapshotNotFound
		}
		// v is only valid inside the transaction; Unmarshal copies what it keeps.
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes the snapshot. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, routerID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Delete([]byte(routerID))
	})
}

// List returns the stored router IDs in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}
