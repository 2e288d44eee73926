// Package vecindex provides vector index implementations for the
// medical knowledge base.
package vecindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/respiguard/backend/internal/domain/knowledge"
)

// MemoryIndex is an in-memory cosine similarity index.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks map[string]knowledge.Chunk
}

// NewMemoryIndex constructs an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		chunks: make(map[string]knowledge.Chunk),
	}
}

// Upsert stores chunks keyed by content id; re-ingesting is idempotent.
func (x *MemoryIndex) Upsert(_ context.Context, chunks []knowledge.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, chunk := range chunks {
		x.chunks[chunk.ID] = chunk
	}
	return nil
}

// Search returns the k most similar passages, relevance-descending.
func (x *MemoryIndex) Search(_ context.Context, embedding []float32, k int) ([]knowledge.Passage, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		chunk knowledge.Chunk
		score float64
	}
	results := make([]scored, 0, len(x.chunks))
	for _, chunk := range x.chunks {
		results = append(results, scored{
			chunk: chunk,
			score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if k > 0 && k < len(results) {
		results = results[:k]
	}

	passages := make([]knowledge.Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, knowledge.Passage{
			Content: r.chunk.Content,
			Source:  r.chunk.Source,
		})
	}
	return passages, nil
}

var _ knowledge.Index = (*MemoryIndex)(nil)

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	var magA float64
	var magB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i] * b[i])
		magA += float64(a[i] * a[i])
		magB += float64(b[i] * b[i])
	}
	den := math.Sqrt(magA) * math.Sqrt(magB)
	if den == 0 {
		return 0
	}
	return dot / den
}
