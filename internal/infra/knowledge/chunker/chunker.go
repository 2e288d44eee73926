// Package chunker splits knowledge-base sections into token-bounded
// segments ready for embedding.
package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Candidate is one chunk produced from a source section.
type Candidate struct {
	Index      int
	Content    string
	TokenCount int
}

// TokenChunker splits text into roughly even token-budget segments.
// Token counts come from tiktoken when the encoding is available and
// fall back to a whitespace heuristic otherwise.
type TokenChunker struct {
	MaxTokens int
	Overlap   int

	encoding *tiktoken.Tiktoken
}

// NewTokenChunker constructs a chunker with defaults.
func NewTokenChunker(maxTokens, overlap int) *TokenChunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlap < 0 {
		overlap = 0
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &TokenChunker{MaxTokens: maxTokens, Overlap: overlap, encoding: enc}
}

// Chunk splits by lines and then by token budget.
func (c *TokenChunker) Chunk(text string) []Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	var (
		current strings.Builder
		index   int
		out     []Candidate
	)

	flush := func() {
		content := strings.TrimSpace(current.String())
		if content == "" {
			current.Reset()
			return
		}
		out = append(out, Candidate{
			Index:      index,
			Content:    content,
			TokenCount: c.countTokens(content),
		})
		index++
		current.Reset()
	}

	for _, part := range parts {
		words := strings.Fields(part)
		for _, word := range words {
			if c.countTokens(current.String()+word) >= c.MaxTokens {
				flush()
				if c.Overlap > 0 && len(out) > 0 {
					overlap := tailWords(out[len(out)-1].Content, c.Overlap)
					current.WriteString(overlap)
				}
			}
			current.WriteString(word)
			current.WriteString(" ")
		}
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		flush()
	}
	return out
}

func (c *TokenChunker) countTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}

func tailWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	words = words[len(words)-limit:]
	return strings.Join(words, " ") + " "
}
