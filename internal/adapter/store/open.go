package store

import (
	"fmt"

	"docrag/config"
	"docrag/internal/logger"
	"docrag/internal/port"
)

// Open returns the snapshot store selected by cfg, rooted at dir.
func Open(cfg *config.Config, dir string) (port.SnapshotStore, error) {
	path := cfg.StorePath(dir)

	switch cfg.Store.Backend {
	case config.BackendBolt, "":
		st, err := NewBoltSnapshotStore(path)
		if err != nil {
			return nil, err
		}
		if err := prepareBolt(st, cfg); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case config.BackendSQLite:
		return NewSQLiteSnapshotStore(path)
	case config.BackendFile:
		return NewFileSnapshotStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// prepareBolt records the schema version. Snapshots are never discarded:
// they cannot be rebuilt, and Engine.Load rejects any whose dimension
// differs from the active embedder.
func prepareBolt(st *BoltSnapshotStore, cfg *config.Config) error {
	result, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}

	switch {
	case result.Unsupported:
		return fmt.Errorf("cannot open store: %s", result.Reason)
	case result.ConfigChanged:
		logger.Warn("%s: collections trained with the previous dimension will fail to load", result.Reason)
	case result.NeedsMigration:
		logger.Debug("schema migration: %s", result.Reason)
	}

	return st.Migrate(cfg)
}
