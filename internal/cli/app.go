package cli

import (
	"errors"
	"fmt"

	"docrag/config"
	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/memstore"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	engine    *usecase.Engine
	snapshots port.SnapshotStore
}

func openApp(cfg *config.Config, dir string) (*app, error) {
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .docrag directory: %w", err)
	}

	snapshots, err := store.Open(cfg, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	collections := memstore.NewMemoryStore()
	embedder := embedding.NewHashEmbedder(cfg.Embedding.Dimension)
	semantic := retriever.NewSemanticRetriever(collections, embedder)
	cached := cache.NewCachedRetriever(semantic, cache.NewQueryCache(cfg.Cache.Size, cfg.Cache.TTL))

	engine := usecase.NewEngine(
		collections,
		chunker.NewSentenceChunker(cfg.Chunk.TargetWords, cfg.Chunk.OverlapHint),
		embedder,
		cached,
		cfg.EmbeddingWorkers(),
	)

	return &app{
		cfg:       cfg,
		engine:    engine,
		snapshots: snapshots,
	}, nil
}

func (a *app) Close() error {
	return a.snapshots.Close()
}

func (a *app) trainUseCase() *usecase.TrainUseCase {
	walker := fs.NewWalker(a.cfg.Train.Includes, a.cfg.Train.Excludes)
	return usecase.NewTrainUseCase(a.engine, walker, a.snapshots, a.cfg.Train.MinTextLength)
}

// restore loads a persisted collection into memory.
func (a *app) restore(collectionID string) error {
	if err := a.engine.Restore(collectionID, a.snapshots); err != nil {
		if errors.Is(err, domain.ErrCollectionNotTrained) {
			return fmt.Errorf("collection %q not found, run 'docrag train %s' first: %w", collectionID, collectionID, err)
		}
		return fmt.Errorf("failed to load collection %q: %w", collectionID, err)
	}
	return nil
}
