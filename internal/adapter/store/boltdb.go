package store

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

var (
	bucketCollections = []byte("collections")
	bucketMeta        = []byte("meta")
)

// BoltSnapshotStore keeps one encoded snapshot per collection in bbolt.
type BoltSnapshotStore struct {
	db *bbolt.DB
}

func NewBoltSnapshotStore(path string) (*BoltSnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCollections, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSnapshotStore{db: db}, nil
}

func (s *BoltSnapshotStore) Put(collectionID string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).Put([]byte(collectionID), data)
	})
}

func (s *BoltSnapshotStore) Get(collectionID string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCollections).Get([]byte(collectionID))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrCollectionNotTrained, collectionID)
		}
		// bolt memory is only valid inside the transaction
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}

func (s *BoltSnapshotStore) Delete(collectionID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).Delete([]byte(collectionID))
	})
}

func (s *BoltSnapshotStore) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (s *BoltSnapshotStore) Close() error {
	return s.db.Close()
}
