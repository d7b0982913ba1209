package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// QueryCache is a bounded LRU of search results with a TTL. Each
// collection has a generation counter; bumping it on retrain or load makes
// every cached result for that collection stale.
type QueryCache struct {
	mu          sync.RWMutex
	entries     map[string]*cacheEntry
	order       []string
	maxSize     int
	ttl         time.Duration
	generations map[string]uint64
}

type cacheEntry struct {
	collectionID string
	results      []domain.ScoredDocument
	timestamp    time.Time
	generation   uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries:     make(map[string]*cacheEntry),
		order:       make([]string, 0, maxSize),
		maxSize:     maxSize,
		ttl:         ttl,
		generations: make(map[string]uint64),
	}
}

func cacheKey(collectionID, query string, topK int) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(collectionID)))
	h.Write(n[:])
	h.Write([]byte(collectionID))
	h.Write([]byte(query))
	binary.BigEndian.PutUint64(n[:], uint64(topK))
	h.Write(n[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(collectionID, query string, topK int) ([]domain.ScoredDocument, bool) {
	key := cacheKey(collectionID, query, topK)

	c.mu.RLock()
	entry, exists := c.entries[key]
	currentGen := c.generations[collectionID]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.generation != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	if _, still := c.entries[key]; still {
		c.moveToEnd(key)
	}
	c.mu.Unlock()

	return cloneResults(entry.results), true
}

// Generation returns the collection's current generation. Read it before
// searching and hand it to Put so a result computed against data that was
// replaced mid-search is never served.
func (c *QueryCache) Generation(collectionID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[collectionID]
}

func (c *QueryCache) Put(collectionID, query string, topK int, generation uint64, results []domain.ScoredDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generations[collectionID] {
		return
	}

	key := cacheKey(collectionID, query, topK)
	entry := &cacheEntry{
		collectionID: collectionID,
		results:      cloneResults(results),
		timestamp:    time.Now(),
		generation:   generation,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every cached result for one collection.
func (c *QueryCache) Invalidate(collectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[collectionID]++
	for key, entry := range c.entries {
		if entry.collectionID == collectionID {
			delete(c.entries, key)
			c.removeFromOrder(key)
		}
	}
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func cloneResults(in []domain.ScoredDocument) []domain.ScoredDocument {
	if in == nil {
		return nil
	}
	out := make([]domain.ScoredDocument, len(in))
	copy(out, in)
	return out
}

// CachedRetriever serves repeated searches from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, collectionID, query string, k int) ([]domain.ScoredDocument, error) {
	if results, hit := r.cache.Get(collectionID, query, k); hit {
		return results, nil
	}

	gen := r.cache.Generation(collectionID)
	results, err := r.retriever.Search(ctx, collectionID, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(collectionID, query, k, gen, results)

	return results, nil
}

// Invalidate forwards to the underlying cache.
func (r *CachedRetriever) Invalidate(collectionID string) {
	r.cache.Invalidate(collectionID)
}
