package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// exerciseSnapshotStore runs the behaviour every backend must share.
func exerciseSnapshotStore(t *testing.T, s port.SnapshotStore) {
	t.Helper()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrCollectionNotTrained)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.Put("orders", []byte("v1")))
	require.NoError(t, s.Put("users/2024", []byte("u1")))
	require.NoError(t, s.Put("orders", []byte("v2")))

	data, err := s.Get("orders")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	data, err = s.Get("users/2024")
	require.NoError(t, err)
	assert.Equal(t, []byte("u1"), data)

	ids, err = s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders", "users/2024"}, ids)

	require.NoError(t, s.Delete("orders"))
	require.NoError(t, s.Delete("orders"))
	_, err = s.Get("orders")
	assert.ErrorIs(t, err, domain.ErrCollectionNotTrained)
}

func TestBoltSnapshotStore(t *testing.T) {
	s, err := NewBoltSnapshotStore(filepath.Join(t.TempDir(), "nested", "index.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseSnapshotStore(t, s)
}

func TestSQLiteSnapshotStore(t *testing.T) {
	s, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	exerciseSnapshotStore(t, s)
}

func TestFileSnapshotStore(t *testing.T) {
	s, err := NewFileSnapshotStore(filepath.Join(t.TempDir(), "collections"))
	require.NoError(t, err)
	defer s.Close()

	exerciseSnapshotStore(t, s)
}

func TestBoltSnapshotStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := NewBoltSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("orders", []byte("payload")))
	require.NoError(t, s.Close())

	s, err = NewBoltSnapshotStore(path)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Get("orders")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestBoltSnapshotStore_Migration(t *testing.T) {
	s, err := NewBoltSnapshotStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	cfg := config.DefaultConfig()

	result, err := s.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsMigration)
	assert.False(t, result.ConfigChanged)

	require.NoError(t, s.Migrate(cfg))
	result, err = s.CheckMigration(cfg)
	require.NoError(t, err)
	assert.False(t, result.NeedsMigration)
	assert.False(t, result.ConfigChanged)

	changed := config.DefaultConfig()
	changed.Embedding.Dimension = 256
	result, err = s.CheckMigration(changed)
	require.NoError(t, err)
	assert.True(t, result.ConfigChanged)
	assert.Equal(t, "embedding configuration changed", result.Reason)

	require.NoError(t, s.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion + 1}))
	result, err = s.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.Unsupported)
}

func TestComputeConfigHash(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	b.Chunk.TargetWords = 10

	assert.Equal(t, ComputeConfigHash(a), ComputeConfigHash(b))

	b.Embedding.Dimension = 64
	assert.NotEqual(t, ComputeConfigHash(a), ComputeConfigHash(b))
}

func TestOpen_Backends(t *testing.T) {
	for _, backend := range []string{config.BackendBolt, config.BackendSQLite, config.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Store.Backend = backend

			s, err := Open(cfg, t.TempDir())
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Put("c1", []byte("data")))
			data, err := s.Get("c1")
			require.NoError(t, err)
			assert.Equal(t, []byte("data"), data)
		})
	}
}

func TestOpen_DimensionChangeKeepsBoltSnapshots(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	s, err := Open(cfg, dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("c1", []byte("data")))
	require.NoError(t, s.Close())

	cfg.Embedding.Dimension = 128
	s, err = Open(cfg, dir)
	require.NoError(t, err)

	data, err := s.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	require.NoError(t, s.Close())

	cfg.Embedding.Dimension = config.DefaultConfig().Embedding.Dimension
	s, err = Open(cfg, dir)
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestOpen_NewerSchemaRefused(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	st, err := NewBoltSnapshotStore(cfg.StorePath(dir))
	require.NoError(t, err)
	require.NoError(t, st.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion + 1}))
	require.NoError(t, st.Put("c1", []byte("data")))
	require.NoError(t, st.Close())

	_, err = Open(cfg, dir)
	assert.Error(t, err)

	st, err = NewBoltSnapshotStore(cfg.StorePath(dir))
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Get("c1")
	assert.NoError(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "redis"

	_, err := Open(cfg, t.TempDir())
	assert.Error(t, err)
}
