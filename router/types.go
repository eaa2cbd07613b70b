// Package router decides what to do with each user message: open the
// booking form, feed the form, cancel it, answer from the documents, or
// reply directly. In-form behavior is always decided by the deterministic
// local policy; a model may assist only with idle intent.
package router

import (
	"context"
	"errors"

	"github.com/tbxark/apptagent/types"
)

// Action is the closed set of things the assistant can do with a message.
type Action string

const (
	// ActionOpenForm starts the booking form.
	ActionOpenForm Action = "open_form"
	// ActionContinueForm feeds the message to the in-flight form.
	ActionContinueForm Action = "continue_form"
	// ActionCancelForm abandons the in-flight form.
	ActionCancelForm Action = "cancel_form"
	// ActionAskDocs answers the message from the document index.
	ActionAskDocs Action = "ask_docs"
	// ActionDirectReply answers without consulting form or documents.
	ActionDirectReply Action = "direct_reply"
)

// Decision is a routed message. Trigger carries the matched keyword when one
// decided the outcome.
type Decision struct {
	Action  Action
	Trigger string
}

// ErrUndecided is returned by routers that decline an input so the next
// router in a chain can take it.
var ErrUndecided = errors.New("router: undecided")

type Router interface {
	Route(ctx context.Context, input string, mode types.Mode) (Decision, error)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(ctx context.Context, input string, mode types.Mode) (Decision, error)

func (f RouterFunc) Route(ctx context.Context, input string, mode types.Mode) (Decision, error) {
	return f(ctx, input, mode)
}

// ChainRouter tries each router in order and returns the first decision
// produced without error.
type ChainRouter struct {
	routers []Router
}

func NewChainRouter(routers ...Router) *ChainRouter {
	return &ChainRouter{routers: routers}
}

func (r *ChainRouter) Route(ctx context.Context, input string, mode types.Mode) (Decision, error) {
	var lastErr error
	for _, router := range r.routers {
		decision, err := router.Route(ctx, input, mode)
		if err == nil {
			return decision, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrUndecided
	}
	return Decision{}, lastErr
}
