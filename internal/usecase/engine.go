package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/logger"
	"docrag/internal/port"
)

// ProgressFunc is told how many of total chunks have been embedded.
// Calls are serialised.
type ProgressFunc func(done, total int)

type trainOptions struct {
	progress ProgressFunc
}

type TrainOption func(*trainOptions)

// WithProgress reports embedding progress during Train.
func WithProgress(fn ProgressFunc) TrainOption {
	return func(o *trainOptions) {
		o.progress = fn
	}
}

// invalidator is implemented by retrievers that cache per collection.
type invalidator interface {
	Invalidate(collectionID string)
}

// Engine trains, searches and persists named collections.
type Engine struct {
	store     port.CollectionStore
	chunker   port.Chunker
	embedder  port.Embedder
	retriever port.Retriever
	workers   int
	writers   *keyedMutex
}

// NewEngine wires an engine. workers <= 0 uses one worker per CPU.
func NewEngine(
	store port.CollectionStore,
	chunker port.Chunker,
	embedder port.Embedder,
	retriever port.Retriever,
	workers int,
) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		store:     store,
		chunker:   chunker,
		embedder:  embedder,
		retriever: retriever,
		workers:   workers,
		writers:   newKeyedMutex(),
	}
}

// Dimension returns the embedder's vector length.
func (e *Engine) Dimension() int {
	return e.embedder.Dimension()
}

// Train chunks text, embeds every chunk and replaces the collection with
// the chunks that embedded successfully.
func (e *Engine) Train(ctx context.Context, collectionID, text string, opts ...TrainOption) (domain.TrainResult, error) {
	var options trainOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := validateID(collectionID); err != nil {
		return domain.TrainResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		return domain.TrainResult{}, domain.ErrEmptyInput
	}

	chunks := e.chunker.Chunk(text)
	if len(chunks) == 0 {
		return domain.TrainResult{}, domain.ErrEmptyInput
	}

	unlock := e.writers.Lock(collectionID)
	defer unlock()

	logger.Debug("training %q: %d chunks on %d workers", collectionID, len(chunks), e.workers)

	vectors, err := e.embedAll(ctx, chunks, options.progress)
	if err != nil {
		return domain.TrainResult{}, err
	}

	dim := e.embedder.Dimension()
	docs := make([]domain.Document, 0, len(chunks))
	totalWords := 0
	for i, chunk := range chunks {
		totalWords += len(strings.Fields(chunk))
		if vectors[i] == nil {
			continue
		}
		docs = append(docs, domain.Document{
			SequenceID: len(docs),
			Text:       chunk,
			Embedding:  vectors[i],
		})
	}

	result := domain.TrainResult{
		DocumentsCount: len(docs),
		ChunkCount:     len(chunks),
		SkippedChunks:  len(chunks) - len(docs),
		AvgChunkLength: float64(totalWords) / float64(len(chunks)),
	}
	if result.SkippedChunks > 0 {
		logger.Warn("training %q: skipped %d of %d chunks", collectionID, result.SkippedChunks, len(chunks))
	}
	if len(docs) == 0 {
		return result, domain.ErrNoDocumentsIndexed
	}

	if err := e.store.Replace(collectionID, dim, docs); err != nil {
		return result, fmt.Errorf("failed to store collection: %w", err)
	}
	e.invalidate(collectionID)

	logger.Info("trained %q: %d documents (avg %.1f words)", collectionID, result.DocumentsCount, result.AvgChunkLength)
	return result, nil
}

// embedAll embeds chunks on a bounded pool. A nil slot marks a chunk whose
// embedding failed.
func (e *Engine) embedAll(ctx context.Context, chunks []string, progress ProgressFunc) ([][]float64, error) {
	dim := e.embedder.Dimension()
	vectors := make([][]float64, len(chunks))

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if progress == nil {
			return
		}
		progressMu.Lock()
		done++
		progress(done, len(chunks))
		progressMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := e.embedder.Embed(chunk)
			switch {
			case err != nil:
				logger.Debug("chunk %d: embedding failed: %v", i, err)
			case len(vec) != dim:
				logger.Debug("chunk %d: embedding has %d components, want %d", i, len(vec), dim)
			default:
				vectors[i] = vec
			}
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Search returns the k best matching documents of a collection.
func (e *Engine) Search(ctx context.Context, collectionID, query string, k int) ([]domain.ScoredDocument, error) {
	if err := validateID(collectionID); err != nil {
		return nil, err
	}
	results, err := e.retriever.Search(ctx, collectionID, query, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("search %q: %d results", collectionID, len(results))
	return results, nil
}

func (e *Engine) Status(collectionID string) domain.Status {
	return e.store.Status(collectionID)
}

// Drop removes a collection from memory. It reports whether it existed.
func (e *Engine) Drop(collectionID string) bool {
	unlock := e.writers.Lock(collectionID)
	defer unlock()

	dropped := e.store.Delete(collectionID)
	e.invalidate(collectionID)
	return dropped
}

// Collections lists the ids of every loaded collection.
func (e *Engine) Collections() []string {
	return e.store.IDs()
}

// Save writes a snapshot of the collection to w.
func (e *Engine) Save(collectionID string, w io.Writer) error {
	c, err := e.store.Documents(collectionID)
	if err != nil {
		return err
	}
	return store.Encode(w, store.NewSnapshot(c))
}

// Load replaces the collection with the snapshot read from r. The snapshot
// must have been produced with the engine's dimension.
func (e *Engine) Load(collectionID string, r io.Reader) error {
	if err := validateID(collectionID); err != nil {
		return err
	}

	snap, err := store.Decode(r)
	if err != nil {
		return err
	}
	if snap.Dimension != e.embedder.Dimension() {
		return &domain.DimensionMismatchError{Expected: e.embedder.Dimension(), Got: snap.Dimension}
	}

	unlock := e.writers.Lock(collectionID)
	defer unlock()

	if err := e.store.Replace(collectionID, snap.Dimension, snap.Documents); err != nil {
		return fmt.Errorf("failed to store collection: %w", err)
	}
	e.invalidate(collectionID)

	logger.Debug("loaded %q: %d documents from snapshot %s", collectionID, len(snap.Documents), snap.ID)
	return nil
}

// Persist encodes the collection and puts it into snapshots.
func (e *Engine) Persist(collectionID string, snapshots port.SnapshotStore) error {
	var buf bytes.Buffer
	if err := e.Save(collectionID, &buf); err != nil {
		return err
	}
	if err := snapshots.Put(collectionID, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to persist %q: %w", collectionID, err)
	}
	return nil
}

// Restore loads the collection stored under its id in snapshots.
func (e *Engine) Restore(collectionID string, snapshots port.SnapshotStore) error {
	data, err := snapshots.Get(collectionID)
	if err != nil {
		return err
	}
	return e.Load(collectionID, bytes.NewReader(data))
}

func (e *Engine) invalidate(collectionID string) {
	if inv, ok := e.retriever.(invalidator); ok {
		inv.Invalidate(collectionID)
	}
}

func validateID(collectionID string) error {
	if strings.TrimSpace(collectionID) == "" {
		return domain.ErrInvalidCollectionID
	}
	return nil
}
