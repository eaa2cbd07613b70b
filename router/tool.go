package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/apptagent/structured"
	"github.com/tbxark/apptagent/types"
)

const (
	routeToolName        = "classify_intent"
	routeToolDescription = "Classify what the user wants from an idle conversation: open_form, ask_docs, direct_reply."
)

type routeIntent struct {
	Intent Action `json:"intent" jsonschema:"required,enum=open_form,enum=ask_docs,enum=direct_reply,description=What the user wants"`
}

// ToolBasedRouter classifies idle messages with a chat model. It never
// routes in-form input: when a form is active it returns ErrUndecided so the
// deterministic policy keeps control of cancellation and field collection.
type ToolBasedRouter struct {
	chain *structured.Chain[string, routeIntent]
}

func NewToolBasedRouter(chatModel model.ToolCallingChatModel, opts ...structured.Option) (*ToolBasedRouter, error) {
	chain, err := structured.NewChain[string, routeIntent](
		chatModel,
		buildRoutePrompt,
		routeToolName,
		routeToolDescription,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("create intent chain failed: %w", err)
	}
	return &ToolBasedRouter{chain: chain}, nil
}

func (r *ToolBasedRouter) Route(ctx context.Context, input string, mode types.Mode) (Decision, error) {
	if mode != types.ModeIdle {
		return Decision{}, ErrUndecided
	}
	result, err := r.chain.Invoke(ctx, input)
	if err != nil {
		return Decision{}, err
	}
	switch result.Intent {
	case ActionOpenForm, ActionAskDocs, ActionDirectReply:
		return Decision{Action: result.Intent}, nil
	default:
		return Decision{}, fmt.Errorf("unexpected intent %q from %s", result.Intent, routeToolName)
	}
}

func buildRoutePrompt(ctx context.Context, input string) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`You are the intent classifier of an assistant that answers questions from a document collection and books callback appointments.

Classify the user's message:
- open_form: the user wants to be called back, book an appointment, or talk to a person (e.g. "call me", "can someone reach out?", "I'd like to set up a meeting").
- ask_docs: the user asks a question the documents might answer.
- direct_reply: small talk, greetings, or thanks with no question in it.

Call the '%s' tool with the result.`, routeToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(input),
	}, nil
}
