package domain

import "time"

// Document is one indexed chunk of a collection.
type Document struct {
	SequenceID int
	Text       string
	Embedding  []float64
}

// Collection is the ordered document list trained under one id.
type Collection struct {
	ID        string
	Dimension int
	Documents []Document
}

type ScoredDocument struct {
	SequenceID int     `json:"sequence_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type Status struct {
	Exists        bool `json:"exists"`
	DocumentCount int  `json:"document_count"`
}

// TrainResult reports the outcome of a training run.
type TrainResult struct {
	DocumentsCount int     `json:"documents_count"`
	ChunkCount     int     `json:"chunk_count"`
	SkippedChunks  int     `json:"skipped_chunks"`
	AvgChunkLength float64 `json:"avg_chunk_length"` // mean words per chunk
}

// Snapshot is a serialisable copy of a collection.
type Snapshot struct {
	ID           string
	CollectionID string
	Dimension    int
	CreatedAt    time.Time
	Documents    []Document
}

// Source is a passage prepared for a prompt.
type Source struct {
	ID      int     `json:"id"`
	Preview string  `json:"preview"`
	Score   float64 `json:"score"`
}

type RetrievedContext struct {
	Context string   `json:"context"`
	Sources []Source `json:"sources"`
}
