// Package scorer implements chunk relevance scoring for retrieval.
package scorer

import "strings"

// minTokenLen filters out short query tokens ("the", "and") that carry no
// signal for keyword matching.
const minTokenLen = 3

// Keyword scores a chunk by keyword frequency: the summed occurrence count
// of each query token within the text, case-insensitive. It is a literal
// term-overlap heuristic, not semantic similarity; callers depend only on
// "higher score = more literal term overlap" and must treat 0 as no match.
type Keyword struct{}

// Score returns the total occurrence count of the query's tokens in text.
func (Keyword) Score(query, text string) float64 {
	q := strings.ToLower(query)
	t := strings.ToLower(text)

	var score int
	for _, word := range strings.Fields(q) {
		if len(word) <= minTokenLen {
			continue
		}
		score += strings.Count(t, word)
	}
	return float64(score)
}
