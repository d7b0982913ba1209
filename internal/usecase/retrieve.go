package usecase

import (
	"context"
	"fmt"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// DefaultPreviewChars bounds the source previews returned with a context.
const DefaultPreviewChars = 250

// RetrieveUseCase turns ranked documents into prompt-ready context.
// Engine satisfies port.Retriever, so it is usually what gets passed in.
type RetrieveUseCase struct {
	retriever         port.Retriever
	minScoreThreshold float64 // keep results scoring strictly above this
	previewChars      int
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(retriever port.Retriever, minScoreThreshold float64, previewChars int) *RetrieveUseCase {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return &RetrieveUseCase{
		retriever:         retriever,
		minScoreThreshold: minScoreThreshold,
		previewChars:      previewChars,
	}
}

// Retrieve searches the collection and drops results at or below the
// minimum score.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, collectionID, query string, topK int) ([]domain.ScoredDocument, error) {
	results, err := u.retriever.Search(ctx, collectionID, query, topK)
	if err != nil {
		return nil, err
	}
	return u.filterByThreshold(results), nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredDocument) []domain.ScoredDocument {
	filtered := make([]domain.ScoredDocument, 0, len(results))
	for _, r := range results {
		if r.Score > u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Context retrieves relevant passages and joins them into numbered
// "[Source N]" blocks. No relevant passage yields an empty context.
func (u *RetrieveUseCase) Context(ctx context.Context, collectionID, query string, topK int) (domain.RetrievedContext, error) {
	results, err := u.Retrieve(ctx, collectionID, query, topK)
	if err != nil {
		return domain.RetrievedContext{}, err
	}
	return BuildContext(results, u.previewChars), nil
}

// BuildContext numbers results from 1 in rank order.
func BuildContext(results []domain.ScoredDocument, previewChars int) domain.RetrievedContext {
	if len(results) == 0 {
		return domain.RetrievedContext{}
	}

	blocks := make([]string, len(results))
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source %d]:\n%s", i+1, r.Text)
		sources[i] = domain.Source{
			ID:      i + 1,
			Preview: Preview(r.Text, previewChars),
			Score:   r.Score,
		}
	}

	return domain.RetrievedContext{
		Context: strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

// Preview cuts text to at most n runes, marking the cut with "...".
func Preview(text string, n int) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
