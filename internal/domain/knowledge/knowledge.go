package knowledge

import (
	"context"
	"strings"
)

// Passage is one retrieved knowledge-base excerpt in relevance order.
type Passage struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Retriever performs similarity search over the medical knowledge base.
// Results are ordered relevance-descending and that order must be preserved.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// FormatPassages renders passages into the context block fed to the model.
// Every passage becomes a CONTENT/SOURCE block terminated by "---"; order is
// preserved and no passage is dropped. Zero passages yield an empty string.
func FormatPassages(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		source := strings.TrimSpace(p.Source)
		if source == "" {
			source = "Unknown Source"
		}
		blocks = append(blocks, "CONTENT: "+p.Content+"\nSOURCE: "+source+"\n---")
	}
	return strings.Join(blocks, "\n")
}
