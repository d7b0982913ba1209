package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"docrag/internal/domain"
)

// SQLiteSnapshotStore keeps one encoded snapshot per collection in a
// SQLite table.
type SQLiteSnapshotStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteSnapshotStore(path string) (*SQLiteSnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			id         TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating collections table: %w", err)
	}

	return &SQLiteSnapshotStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteSnapshotStore) Path() string {
	return s.path
}

func (s *SQLiteSnapshotStore) Put(collectionID string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO collections (id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, collectionID, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving collection %s: %w", collectionID, err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) Get(collectionID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT payload FROM collections WHERE id = ?", collectionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotTrained, collectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %s: %w", collectionID, err)
	}
	return data, nil
}

func (s *SQLiteSnapshotStore) Delete(collectionID string) error {
	if _, err := s.db.Exec("DELETE FROM collections WHERE id = ?", collectionID); err != nil {
		return fmt.Errorf("deleting collection %s: %w", collectionID, err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM collections ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
