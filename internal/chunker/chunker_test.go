package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunkEmptyText(t *testing.T) {
	assert.Empty(t, Chunk("", 1000, 200))
	assert.Empty(t, Chunk("   \n\t ", 1000, 200))
}

func TestChunkShortTextSingleWindow(t *testing.T) {
	text := "hello world this is short"
	chunks := Chunk(text, 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkCountMatchesStep(t *testing.T) {
	// ceil(W / (S-O)) windows for W words, size S, overlap O
	cases := []struct {
		words, size, overlap, want int
	}{
		{2500, 1000, 200, 4}, // ceil(2500/800)
		{1000, 1000, 200, 2}, // second window starts at 800
		{800, 1000, 200, 1},
		{10, 4, 1, 4}, // ceil(10/3)
	}
	for _, tc := range cases {
		chunks := Chunk(words(tc.words), tc.size, tc.overlap)
		assert.Len(t, chunks, tc.want, "W=%d S=%d O=%d", tc.words, tc.size, tc.overlap)
	}
}

func TestChunkOverlapSharedWords(t *testing.T) {
	chunks := Chunk(words(10), 4, 2)
	require.True(t, len(chunks) >= 2)

	for i := 0; i < len(chunks)-1; i++ {
		cur := strings.Fields(chunks[i])
		next := strings.Fields(chunks[i+1])
		if len(cur) < 4 {
			continue // final short window
		}
		tail := cur[len(cur)-2:]
		head := next[:2]
		assert.Equal(t, tail, head, "chunks %d and %d should share 2 words", i, i+1)
	}
}

func TestChunkCoversEveryWord(t *testing.T) {
	text := words(57)
	chunks := Chunk(text, 10, 3)

	seen := map[string]bool{}
	for _, c := range chunks {
		for _, w := range strings.Fields(c) {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(text) {
		assert.True(t, seen[w], "word %s missing from chunks", w)
	}
}

func TestChunkOverlapAtLeastWindowSizeClamped(t *testing.T) {
	// advance step would be <= 0; must clamp to 1 and terminate
	chunks := Chunk(words(5), 3, 3)
	assert.Len(t, chunks, 5)

	chunks = Chunk(words(5), 3, 10)
	assert.Len(t, chunks, 5)
}

func TestChunkCollapsesWhitespace(t *testing.T) {
	chunks := Chunk("a \n b\t\tc", 10, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a b c", chunks[0])
}
