package port

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns a vector of length Dimension() for the given text.
	Embed(text string) ([]float64, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding scheme.
	ModelName() string
}
