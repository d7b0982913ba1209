package store

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docrag/internal/domain"
)

const snapshotExt = ".json"

// FileSnapshotStore writes each collection to <dir>/<escaped id>.json.
type FileSnapshotStore struct {
	dir string
}

func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(collectionID string) string {
	return filepath.Join(s.dir, url.PathEscape(collectionID)+snapshotExt)
}

// Put writes to a temp file and renames it so readers never see a
// partially written snapshot.
func (s *FileSnapshotStore) Put(collectionID string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(collectionID))
}

func (s *FileSnapshotStore) Get(collectionID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(collectionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotTrained, collectionID)
	}
	return data, err
}

func (s *FileSnapshotStore) Delete(collectionID string) error {
	err := os.Remove(s.path(collectionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileSnapshotStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, snapshotExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileSnapshotStore) Close() error {
	return nil
}
