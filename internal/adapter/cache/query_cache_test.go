package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func results(ids ...int) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, len(ids))
	for i, id := range ids {
		out[i] = domain.ScoredDocument{SequenceID: id, Score: 1 / float64(i+1)}
	}
	return out
}

func TestQueryCache_PutGet(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, hit := c.Get("db1", "cats", 5)
	assert.False(t, hit)

	c.Put("db1", "cats", 5, c.Generation("db1"), results(1, 2))

	got, hit := c.Get("db1", "cats", 5)
	require.True(t, hit)
	assert.Equal(t, results(1, 2), got)

	_, hit = c.Get("db1", "cats", 3)
	assert.False(t, hit, "different topK is a different key")
	_, hit = c.Get("db2", "cats", 5)
	assert.False(t, hit, "different collection is a different key")
}

func TestQueryCache_ReturnsCopies(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("db1", "q", 5, 0, results(1))

	got, _ := c.Get("db1", "q", 5)
	got[0].Text = "mutated"

	again, _ := c.Get("db1", "q", 5)
	assert.Empty(t, again[0].Text)
}

func TestQueryCache_InvalidateIsPerCollection(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("db1", "q", 5, 0, results(1))
	c.Put("db2", "q", 5, 0, results(2))

	c.Invalidate("db1")

	_, hit := c.Get("db1", "q", 5)
	assert.False(t, hit)
	_, hit = c.Get("db2", "q", 5)
	assert.True(t, hit)
	assert.Equal(t, 1, c.Size())
}

func TestQueryCache_StaleGenerationNotStored(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	gen := c.Generation("db1")

	c.Invalidate("db1")
	c.Put("db1", "q", 5, gen, results(1))

	_, hit := c.Get("db1", "q", 5)
	assert.False(t, hit)
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Millisecond)
	c.Put("db1", "q", 5, 0, results(1))

	time.Sleep(5 * time.Millisecond)

	_, hit := c.Get("db1", "q", 5)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("db1", "a", 5, 0, results(1))
	c.Put("db1", "b", 5, 0, results(2))

	_, hit := c.Get("db1", "a", 5)
	require.True(t, hit)

	c.Put("db1", "c", 5, 0, results(3))

	_, hit = c.Get("db1", "b", 5)
	assert.False(t, hit, "b was least recently used")
	_, hit = c.Get("db1", "a", 5)
	assert.True(t, hit)
	_, hit = c.Get("db1", "c", 5)
	assert.True(t, hit)
}

func TestNewQueryCache_Defaults(t *testing.T) {
	c := NewQueryCache(0, 0)
	assert.Equal(t, 100, c.maxSize)
	assert.Equal(t, 5*time.Minute, c.ttl)
}

type countingRetriever struct {
	calls int
	err   error
}

func (r *countingRetriever) Search(_ context.Context, _, _ string, k int) ([]domain.ScoredDocument, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return results(k), nil
}

func TestCachedRetriever(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	first, err := r.Search(ctx, "db1", "cats", 3)
	require.NoError(t, err)
	second, err := r.Search(ctx, "db1", "cats", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	r.Invalidate("db1")
	_, err = r.Search(ctx, "db1", "cats", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedRetriever_ErrorsNotCached(t *testing.T) {
	inner := &countingRetriever{err: domain.ErrCollectionNotTrained}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	_, err := r.Search(context.Background(), "db1", "cats", 3)
	assert.ErrorIs(t, err, domain.ErrCollectionNotTrained)
	_, err = r.Search(context.Background(), "db1", "cats", 3)
	assert.ErrorIs(t, err, domain.ErrCollectionNotTrained)
	assert.Equal(t, 2, inner.calls)
}
