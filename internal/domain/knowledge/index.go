package knowledge

import "context"

// Chunk is one embedded knowledge-base excerpt as stored in the index.
// ID is a stable content hash so re-ingesting the same text is idempotent.
type Chunk struct {
	ID         string
	Source     string
	Content    string
	TokenCount int
	Embedding  []float32
}

// Embedder converts texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores embedded chunks and answers nearest-neighbour queries.
type Index interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]Passage, error)
}
