// Package chunker splits call text into overlapping fixed-size word windows
// used as the retrieval unit.
package chunker

import "strings"

const (
	// DefaultWindowSize is the chunk size in words used by ingestion.
	DefaultWindowSize = 1000

	// DefaultOverlap is the word overlap between consecutive chunks. A 20%
	// overlap guarantees no semantic unit near a boundary is fully lost from
	// both neighboring windows.
	DefaultOverlap = 200
)

// Chunk splits text on whitespace into words and produces successive windows
// of up to windowSize words, advancing by windowSize-overlap each step. Each
// window's words are joined with single spaces; empty windows are skipped.
// Empty text yields no chunks.
func Chunk(text string, windowSize, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || windowSize <= 0 {
		return nil
	}

	step := windowSize - overlap
	if step < 1 {
		// overlap >= windowSize would otherwise loop forever
		step = 1
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + windowSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
