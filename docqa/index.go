package docqa

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// DefaultTopK is how many excerpts retrieval returns.
const DefaultTopK = 4

type indexChunk struct {
	document string
	content  string
	vector   []float64
	terms    map[string]int
}

// Index holds chunked documents in memory. With an embedder it ranks by
// cosine similarity; without one it falls back to keyword overlap, which is
// deterministic and good enough for tests and offline runs.
type Index struct {
	embedder embedding.Embedder
	chunker  Chunker
	topK     int
	chunks   []indexChunk
}

type IndexOption func(*Index)

// WithEmbedder enables dense retrieval.
func WithEmbedder(e embedding.Embedder) IndexOption {
	return func(x *Index) { x.embedder = e }
}

// WithChunker replaces the default 1000/200 chunker.
func WithChunker(c Chunker) IndexOption {
	return func(x *Index) { x.chunker = c }
}

// WithTopK sets how many excerpts Retrieve returns.
func WithTopK(k int) IndexOption {
	return func(x *Index) {
		if k > 0 {
			x.topK = k
		}
	}
}

func NewIndex(opts ...IndexOption) *Index {
	x := &Index{
		chunker: NewChunker(),
		topK:    DefaultTopK,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Add chunks and indexes the documents. With an embedder configured, all new
// chunks are embedded in one call.
func (x *Index) Add(ctx context.Context, docs ...Document) error {
	var added []indexChunk
	for _, doc := range docs {
		for _, piece := range x.chunker.Split(doc.Content) {
			added = append(added, indexChunk{
				document: doc.Name,
				content:  piece,
				terms:    termFrequencies(piece),
			})
		}
	}
	if len(added) == 0 {
		return nil
	}

	if x.embedder != nil {
		texts := make([]string, len(added))
		for i, c := range added {
			texts[i] = c.content
		}
		vectors, err := x.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed %d chunks: %w", len(texts), err)
		}
		if len(vectors) != len(added) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(added))
		}
		for i := range added {
			added[i].vector = vectors[i]
		}
	}

	x.chunks = append(x.chunks, added...)
	slog.Info("documents indexed", "documents", len(docs), "chunks", len(added), "dense", x.embedder != nil)
	return nil
}

// Len reports the number of indexed chunks.
func (x *Index) Len() int {
	return len(x.chunks)
}

// Retrieve returns the top-k excerpts for the query, highest score first.
// Chunks that share nothing with the query are dropped even if fewer than k
// remain.
func (x *Index) Retrieve(ctx context.Context, query string) ([]Excerpt, error) {
	if len(x.chunks) == 0 {
		return nil, nil
	}

	scores, err := x.scoreAll(ctx, query)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(x.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	out := make([]Excerpt, 0, x.topK)
	for _, i := range order {
		if len(out) == x.topK {
			break
		}
		if scores[i] <= 0 {
			break
		}
		out = append(out, Excerpt{
			Document: x.chunks[i].document,
			Content:  x.chunks[i].content,
			Score:    scores[i],
		})
	}
	return out, nil
}

func (x *Index) scoreAll(ctx context.Context, query string) ([]float64, error) {
	scores := make([]float64, len(x.chunks))

	if x.embedder != nil {
		vectors, err := x.embedder.EmbedStrings(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vectors))
		}
		for i, c := range x.chunks {
			scores[i] = cosine(vectors[0], c.vector)
		}
		return scores, nil
	}

	queryTerms := termFrequencies(query)
	for i, c := range x.chunks {
		scores[i] = overlapScore(queryTerms, c.terms)
	}
	return scores, nil
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// overlapScore counts query terms present in the chunk, weighting repeats
// lightly so a chunk about the topic beats one that mentions it once.
func overlapScore(query, chunk map[string]int) float64 {
	var score float64
	for term := range query {
		if n := chunk[term]; n > 0 {
			score += 1 + math.Log(float64(n))
		}
	}
	return score
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "can": true, "do": true,
	"does": true, "for": true, "how": true, "i": true, "in": true, "is": true,
	"it": true, "my": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "what": true, "when": true, "where": true, "which": true,
	"who": true, "will": true, "with": true, "you": true, "your": true,
}

func termFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		if len(w) < 2 || stopWords[w] {
			continue
		}
		freq[w]++
	}
	return freq
}
