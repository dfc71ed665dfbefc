package chunker

import (
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// EstimateTokens approximates the embedding token count of text at four
// tokens per three words, with a floor of one for non-blank text. Chunk
// boundaries are decided on characters, never on this estimate.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words*4 + 2) / 3
}

// TotalTokens sums EstimateTokens over the content of chunks.
func TotalTokens(chunks []doctree.VectorChunk) int {
	n := 0
	for _, c := range chunks {
		n += EstimateTokens(c.Content)
	}
	return n
}
