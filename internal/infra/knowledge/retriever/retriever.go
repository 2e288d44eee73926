// Package retriever wires an embedder and a vector index into the
// knowledge.Retriever port used by the advisory pipelines.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/respiguard/backend/internal/domain/knowledge"
)

// EmbeddingRetriever embeds the query and searches the vector index.
type EmbeddingRetriever struct {
	embedder knowledge.Embedder
	index    knowledge.Index
	logger   *slog.Logger
}

// New constructs the retriever.
func New(embedder knowledge.Embedder, index knowledge.Index, logger *slog.Logger) *EmbeddingRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingRetriever{
		embedder: embedder,
		index:    index,
		logger:   logger.With("component", "knowledge.retriever"),
	}
}

// Retrieve returns the k passages most similar to the query.
func (r *EmbeddingRetriever) Retrieve(ctx context.Context, query string, k int) ([]knowledge.Passage, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	passages, err := r.index.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	r.logger.Debug("retrieved passages", "k", k, "found", len(passages))
	return passages, nil
}

var _ knowledge.Retriever = (*EmbeddingRetriever)(nil)
