package port

import (
	"context"

	"docrag/internal/domain"
)

// Retriever ranks a collection's documents against a query.
type Retriever interface {
	// Search returns at most k documents ordered by descending score.
	Search(ctx context.Context, collectionID, query string, k int) ([]domain.ScoredDocument, error)
}
