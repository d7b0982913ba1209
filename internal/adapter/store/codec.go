package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"docrag/internal/domain"
)

const (
	// SnapshotFormat identifies a serialised collection.
	SnapshotFormat = "docrag.collection"

	// SnapshotVersion is bumped on breaking changes to the record layout.
	SnapshotVersion = 1
)

type snapshotFile struct {
	Format     string         `json:"format"`
	Version    int            `json:"version"`
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Dimension  int            `json:"dimension"`
	CreatedAt  time.Time      `json:"created_at"`
	Documents  []storedRecord `json:"documents"`
}

// storedRecord is one persisted document. float64 values go through
// encoding/json's shortest round-trip formatting, so they decode to the
// identical bits.
type storedRecord struct {
	SequenceID int       `json:"sequenceId"`
	Text       string    `json:"text"`
	Embedding  []float64 `json:"embedding"`
}

// NewSnapshot stamps a collection with a fresh snapshot id.
func NewSnapshot(c domain.Collection) domain.Snapshot {
	return domain.Snapshot{
		ID:           uuid.NewString(),
		CollectionID: c.ID,
		Dimension:    c.Dimension,
		CreatedAt:    time.Now().UTC(),
		Documents:    c.Documents,
	}
}

// Encode writes snap to w.
func Encode(w io.Writer, snap domain.Snapshot) error {
	if snap.Dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrSerialization, snap.Dimension)
	}

	file := snapshotFile{
		Format:     SnapshotFormat,
		Version:    SnapshotVersion,
		ID:         snap.ID,
		Collection: snap.CollectionID,
		Dimension:  snap.Dimension,
		CreatedAt:  snap.CreatedAt,
		Documents:  make([]storedRecord, len(snap.Documents)),
	}
	for i, doc := range snap.Documents {
		if len(doc.Embedding) != snap.Dimension {
			return &domain.DimensionMismatchError{Expected: snap.Dimension, Got: len(doc.Embedding)}
		}
		file.Documents[i] = storedRecord{
			SequenceID: doc.SequenceID,
			Text:       doc.Text,
			Embedding:  doc.Embedding,
		}
	}

	if err := json.NewEncoder(w).Encode(file); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return nil
}

// Decode reads one snapshot from r. Truncated, corrupt or trailing input is
// a serialization error; embeddings that disagree with the header dimension
// are a dimension mismatch.
func Decode(r io.Reader) (domain.Snapshot, error) {
	dec := json.NewDecoder(r)

	var file snapshotFile
	if err := dec.Decode(&file); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return domain.Snapshot{}, fmt.Errorf("%w: trailing data after snapshot", domain.ErrSerialization)
	}

	if file.Format != SnapshotFormat {
		return domain.Snapshot{}, fmt.Errorf("%w: unknown format %q", domain.ErrSerialization, file.Format)
	}
	if file.Version != SnapshotVersion {
		return domain.Snapshot{}, fmt.Errorf("%w: unsupported version %d", domain.ErrSerialization, file.Version)
	}
	if file.Dimension <= 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: invalid dimension %d", domain.ErrSerialization, file.Dimension)
	}
	if len(file.Documents) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: snapshot has no documents", domain.ErrSerialization)
	}

	docs := make([]domain.Document, len(file.Documents))
	for i, rec := range file.Documents {
		if len(rec.Embedding) != file.Dimension {
			return domain.Snapshot{}, &domain.DimensionMismatchError{Expected: file.Dimension, Got: len(rec.Embedding)}
		}
		docs[i] = domain.Document{
			SequenceID: rec.SequenceID,
			Text:       rec.Text,
			Embedding:  rec.Embedding,
		}
	}

	return domain.Snapshot{
		ID:           file.ID,
		CollectionID: file.Collection,
		Dimension:    file.Dimension,
		CreatedAt:    file.CreatedAt,
		Documents:    docs,
	}, nil
}
