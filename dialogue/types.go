// Package dialogue renders engine outcomes and assistant events into
// user-visible text. The local generator is deterministic; the tool-based one
// asks a chat model to phrase the same content naturally and falls back to
// the local wording on any failure.
package dialogue

import (
	"context"

	"github.com/tbxark/apptagent/form"
)

// Event says which conversational situation is being rendered.
type Event string

const (
	// EventOpened introduces a fresh form and asks the first field.
	EventOpened Event = "opened"
	// EventStep renders an engine outcome mid-form.
	EventStep Event = "step"
	// EventConfirmed announces a stored appointment.
	EventConfirmed Event = "confirmed"
	// EventCancelled acknowledges a cancelled form.
	EventCancelled Event = "cancelled"
	// EventFailure asks the user to retry after a collaborator failure.
	EventFailure Event = "failure"
	// EventGreeting answers an empty or greeting-only message.
	EventGreeting Event = "greeting"
)

// Request carries everything a generator may need for one reply.
type Request struct {
	Event         Event
	Outcome       form.Outcome
	Record        *form.Record
	AppointmentID string
}

// Generator produces the assistant's next utterance.
type Generator interface {
	Render(ctx context.Context, req *Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req *Request) (string, error)

func (f GeneratorFunc) Render(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// FailbackGenerator tries each generator in order and returns the first
// answer produced without error.
type FailbackGenerator struct {
	generators []Generator
}

// NewFailbackGenerator chains generators; later entries are fallbacks.
func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (g *FailbackGenerator) Render(ctx context.Context, req *Request) (string, error) {
	var lastErr error
	for _, gen := range g.generators {
		msg, err := gen.Render(ctx, req)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	return "", lastErr
}
