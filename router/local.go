package router

import (
	"context"
	"strings"

	"github.com/tbxark/apptagent/types"
)

// LocalRouter is the deterministic routing policy. It is total: every input
// in every mode gets a decision, so it also serves as the safety net behind
// the tool-based router.
type LocalRouter struct {
	TriggerKeywords []string
	CancelKeywords  []string
	Greetings       []string
}

func NewLocalRouter() *LocalRouter {
	return &LocalRouter{
		TriggerKeywords: []string{
			"call me", "call back", "schedule call", "book appointment",
			"appointment", "meeting", "talk to someone", "speak with",
			"contact me", "get in touch", "schedule meeting",
		},
		CancelKeywords: []string{
			"cancel", "stop", "quit", "exit", "never mind", "nevermind", "forget it",
		},
		Greetings: []string{
			"hi", "hello", "hey", "good morning", "good afternoon",
			"good evening", "greetings",
		},
	}
}

func (r *LocalRouter) Route(ctx context.Context, input string, mode types.Mode) (Decision, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	exact := strings.Trim(normalized, ".,!?;: ")

	if mode == types.ModeFormActive || mode == types.ModeConfirmPending {
		for _, keyword := range r.CancelKeywords {
			if exact == keyword {
				return Decision{Action: ActionCancelForm, Trigger: keyword}, nil
			}
		}
		// Everything else, questions included, is form input; the engine
		// rejects what it cannot use and re-asks.
		return Decision{Action: ActionContinueForm}, nil
	}

	if exact == "" {
		return Decision{Action: ActionDirectReply}, nil
	}
	for _, greeting := range r.Greetings {
		if exact == greeting {
			return Decision{Action: ActionDirectReply, Trigger: greeting}, nil
		}
	}
	for _, keyword := range r.TriggerKeywords {
		if strings.Contains(normalized, keyword) {
			return Decision{Action: ActionOpenForm, Trigger: keyword}, nil
		}
	}
	return Decision{Action: ActionAskDocs}, nil
}
