package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"docrag/internal/domain"
	"docrag/internal/port"
)

const DefaultTopK = 5

// SemanticRetriever embeds the query and ranks a collection by cosine
// similarity with an exact linear scan.
type SemanticRetriever struct {
	store    port.CollectionStore
	embedder port.Embedder
}

func NewSemanticRetriever(store port.CollectionStore, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		store:    store,
		embedder: embedder,
	}
}

func (r *SemanticRetriever) Search(ctx context.Context, collectionID, query string, k int) ([]domain.ScoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.store.Status(collectionID).Exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotTrained, collectionID)
	}

	queryVec, err := r.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var results []domain.ScoredDocument
	err = r.store.View(collectionID, func(c domain.Collection) error {
		var err error
		results, err = Rank(queryVec, c, k)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Rank scores every document against query and returns the top k by
// descending score. Equal scores keep ascending sequence id order.
func Rank(query []float64, c domain.Collection, k int) ([]domain.ScoredDocument, error) {
	if len(query) != c.Dimension {
		return nil, &domain.DimensionMismatchError{Expected: c.Dimension, Got: len(query)}
	}
	if k <= 0 {
		k = DefaultTopK
	}

	scores := make([]domain.ScoredDocument, 0, len(c.Documents))
	for _, doc := range c.Documents {
		if len(doc.Embedding) != c.Dimension {
			return nil, &domain.DimensionMismatchError{Expected: c.Dimension, Got: len(doc.Embedding)}
		}
		scores = append(scores, domain.ScoredDocument{
			SequenceID: doc.SequenceID,
			Text:       doc.Text,
			Score:      CosineSimilarity(query, doc.Embedding),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].SequenceID < scores[j].SequenceID
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either norm is 0
// or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push |sim| a hair past 1
	return math.Max(-1, math.Min(1, sim))
}
