// Package docqa answers questions from a small document collection. Plain
// text and markdown files are chunked and indexed; retrieval is dense when an
// embedder is configured and falls back to keyword overlap when not. The
// answer itself comes from a chat model, or from the static answerer when
// running without one.
package docqa

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Document is one source file of the collection.
type Document struct {
	Name    string
	Content string
}

// Excerpt is a retrieved chunk with its relevance score.
type Excerpt struct {
	Document string  `json:"document"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// Answer is a grounded reply: the text plus the excerpts it was built from.
type Answer struct {
	Text    string    `json:"text"`
	Sources []Excerpt `json:"sources,omitempty"`
}

// Answerer turns a question and recent conversation into a grounded answer.
type Answerer interface {
	Answer(ctx context.Context, question string, history []*schema.Message) (*Answer, error)
}

// Retriever finds the excerpts most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Excerpt, error)
}
