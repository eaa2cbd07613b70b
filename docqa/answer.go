package docqa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// NoAnswerText is returned when retrieval finds nothing relevant. The
// assistant offers the callback form instead of guessing.
const NoAnswerText = "I couldn't find anything about that in our documents. " +
	"Would you like to schedule a call so someone can help? Just say 'book appointment'."

const answerSystemPrompt = `You are a helpful assistant answering questions strictly from the provided document excerpts.

Rules:
- Answer only from the excerpts below. If they do not contain the answer, say you don't know and suggest booking a call.
- Be concise and conversational.
- Do not mention the excerpts, chunks, or retrieval.

Excerpts:
%s`

// ModelAnswerer phrases answers with a chat model, grounded on retrieved
// excerpts.
type ModelAnswerer struct {
	model     model.BaseChatModel
	retriever Retriever
	timeout   time.Duration
}

type AnswerOption func(*ModelAnswerer)

// WithAnswerTimeout bounds each model call.
func WithAnswerTimeout(d time.Duration) AnswerOption {
	return func(a *ModelAnswerer) { a.timeout = d }
}

func NewModelAnswerer(chatModel model.BaseChatModel, retriever Retriever, opts ...AnswerOption) *ModelAnswerer {
	a := &ModelAnswerer{
		model:     chatModel,
		retriever: retriever,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ModelAnswerer) Answer(ctx context.Context, question string, history []*schema.Message) (*Answer, error) {
	excerpts, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve excerpts: %w", err)
	}
	if len(excerpts) == 0 {
		return &Answer{Text: NoAnswerText}, nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(fmt.Sprintf(answerSystemPrompt, formatExcerpts(excerpts))))
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(question))

	response, err := a.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	text := strings.TrimSpace(response.Content)
	if text == "" {
		return nil, fmt.Errorf("model returned empty answer")
	}
	return &Answer{Text: text, Sources: excerpts}, nil
}

// StaticAnswerer answers without a model: it returns the best excerpt as-is.
// It backs offline runs and is the fallback behind the model answerer.
type StaticAnswerer struct {
	retriever Retriever
}

func NewStaticAnswerer(retriever Retriever) *StaticAnswerer {
	return &StaticAnswerer{retriever: retriever}
}

func (a *StaticAnswerer) Answer(ctx context.Context, question string, history []*schema.Message) (*Answer, error) {
	excerpts, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve excerpts: %w", err)
	}
	if len(excerpts) == 0 {
		return &Answer{Text: NoAnswerText}, nil
	}
	top := excerpts[0]
	text := fmt.Sprintf("Here's what I found in %s:\n\n%s", top.Document, top.Content)
	return &Answer{Text: text, Sources: excerpts}, nil
}

func formatExcerpts(excerpts []Excerpt) string {
	var b strings.Builder
	for i, e := range excerpts {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, e.Document, e.Content)
	}
	return strings.TrimSpace(b.String())
}
