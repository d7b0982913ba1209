package memstore

import (
	"fmt"
	"sort"
	"sync"

	"docrag/internal/domain"
)

// MemoryStore keeps every collection in memory. The registry lock only
// guards the id map; each collection carries its own lock so writers on
// one id never block readers of another.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	mu        sync.RWMutex
	dimension int
	docs      []domain.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*collection),
	}
}

func (s *MemoryStore) get(id string) (*collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	return c, ok
}

func (s *MemoryStore) getOrCreate(id string) *collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		c = &collection{}
		s.collections[id] = c
	}
	return c
}

// Replace swaps in docs as the full content of the collection. Every
// embedding must have exactly dimension components.
func (s *MemoryStore) Replace(id string, dimension int, docs []domain.Document) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidDimension, dimension)
	}
	for _, doc := range docs {
		if len(doc.Embedding) != dimension {
			return &domain.DimensionMismatchError{Expected: dimension, Got: len(doc.Embedding)}
		}
	}

	owned := make([]domain.Document, len(docs))
	copy(owned, docs)

	c := s.getOrCreate(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dimension = dimension
	c.docs = owned
	return nil
}

func (s *MemoryStore) View(id string, fn func(c domain.Collection) error) error {
	c, ok := s.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotTrained, id)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.docs) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotTrained, id)
	}
	return fn(domain.Collection{
		ID:        id,
		Dimension: c.dimension,
		Documents: c.docs,
	})
}

func (s *MemoryStore) Documents(id string) (domain.Collection, error) {
	var out domain.Collection
	err := s.View(id, func(c domain.Collection) error {
		docs := make([]domain.Document, len(c.Documents))
		for i, doc := range c.Documents {
			emb := make([]float64, len(doc.Embedding))
			copy(emb, doc.Embedding)
			docs[i] = domain.Document{
				SequenceID: doc.SequenceID,
				Text:       doc.Text,
				Embedding:  emb,
			}
		}
		out = domain.Collection{ID: c.ID, Dimension: c.Dimension, Documents: docs}
		return nil
	})
	return out, err
}

func (s *MemoryStore) Status(id string) domain.Status {
	c, ok := s.get(id)
	if !ok {
		return domain.Status{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.Status{
		Exists:        true,
		DocumentCount: len(c.docs),
	}
}

func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[id]; !ok {
		return false
	}
	delete(s.collections, id)
	return true
}

func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.collections))
	for id := range s.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
