package docqa

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits document text into overlapping windows. Cuts snap back to
// the nearest whitespace so words stay whole; a single token longer than
// Size is hard-cut.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker() Chunker {
	return Chunker{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

func (c Chunker) size() int {
	if c.Size <= 0 {
		return DefaultChunkSize
	}
	return c.Size
}

func (c Chunker) overlap() int {
	if c.Overlap < 0 {
		return 0
	}
	if c.Overlap >= c.size() {
		return c.size() / 2
	}
	return c.Overlap
}

func (c Chunker) Split(text string) []string {
	size, overlap := c.size(), c.overlap()

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				chunks = append(chunks, piece)
			}
			break
		}

		cut := end
		if !unicode.IsSpace(runes[cut]) {
			j := cut
			for j > start && !unicode.IsSpace(runes[j-1]) {
				j--
			}
			if j > start {
				cut = j
			}
		}

		if piece := strings.TrimSpace(string(runes[start:cut])); piece != "" {
			chunks = append(chunks, piece)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		// the next window also starts on a word boundary
		for next < cut && next > 0 && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		start = next
	}
	return chunks
}
