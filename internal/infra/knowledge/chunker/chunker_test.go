package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkEmptyText(t *testing.T) {
	c := NewTokenChunker(50, 0)
	require.Nil(t, c.Chunk("   \n  "))
}

func TestChunkSingleSegment(t *testing.T) {
	c := NewTokenChunker(400, 0)
	out := c.Chunk("Stay indoors when air quality is severe.")
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].Index)
	require.Positive(t, out[0].TokenCount)
	require.Contains(t, out[0].Content, "Stay indoors")
}

func TestChunkSplitsOnBudget(t *testing.T) {
	c := NewTokenChunker(20, 0)
	text := strings.Repeat("pollution exposure worsens asthma symptoms quickly ", 30)

	out := c.Chunk(text)
	require.Greater(t, len(out), 1)
	for i, chunk := range out {
		require.Equal(t, i, chunk.Index)
		require.NotEmpty(t, chunk.Content)
		require.LessOrEqual(t, chunk.TokenCount, 25) // budget plus one word of slack
	}
}

func TestChunkOverlapCarriesTail(t *testing.T) {
	c := NewTokenChunker(10, 3)
	text := strings.Repeat("word ", 60)

	out := c.Chunk(text)
	require.Greater(t, len(out), 1)
	// every follow-up chunk starts with the tail of its predecessor
	for i := 1; i < len(out); i++ {
		require.True(t, strings.HasPrefix(out[i].Content, "word"))
	}
}
