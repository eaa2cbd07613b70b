package router

import (
	"context"
	"errors"
	"testing"

	"github.com/tbxark/apptagent/types"
)

func route(t *testing.T, input string, mode types.Mode) Decision {
	t.Helper()
	d, err := NewLocalRouter().Route(context.Background(), input, mode)
	if err != nil {
		t.Fatalf("Route(%q, %s): %v", input, mode, err)
	}
	return d
}

func TestRouteIdle(t *testing.T) {
	cases := []struct {
		input string
		want  Action
	}{
		{"What are your business hours?", ActionAskDocs},
		{"how do I reset my password", ActionAskDocs},
		{"can you book appointment for me", ActionOpenForm},
		{"I want someone to call me", ActionOpenForm},
		{"please get in touch", ActionOpenForm},
		{"I'd like to schedule meeting with sales", ActionOpenForm},
		{"Hello!", ActionDirectReply},
		{"good morning", ActionDirectReply},
		{"", ActionDirectReply},
		{"   ", ActionDirectReply},
		// cancel words are only commands while a form is open
		{"cancel", ActionAskDocs},
		// trigger match is substring, greetings are exact
		{"hello, can you call me back?", ActionOpenForm},
	}
	for _, tc := range cases {
		if got := route(t, tc.input, types.ModeIdle); got.Action != tc.want {
			t.Errorf("Route(%q, idle) = %s, want %s", tc.input, got.Action, tc.want)
		}
	}
}

func TestRouteFormActive(t *testing.T) {
	cases := []struct {
		input string
		want  Action
	}{
		{"John Smith", ActionContinueForm},
		{"john@smith.com", ActionContinueForm},
		{"cancel", ActionCancelForm},
		{"Cancel!", ActionCancelForm},
		{"never mind", ActionCancelForm},
		{"  STOP  ", ActionCancelForm},
		// only an exact cancel word cancels; sentences keep collecting
		{"please stop asking", ActionContinueForm},
		{"I want to cancel my subscription", ActionContinueForm},
		// a question mid-form stays form input; the engine re-asks
		{"what are your hours?", ActionContinueForm},
		// trigger words mid-form do not reopen the form
		{"book appointment", ActionContinueForm},
	}
	for _, tc := range cases {
		if got := route(t, tc.input, types.ModeFormActive); got.Action != tc.want {
			t.Errorf("Route(%q, form-active) = %s, want %s", tc.input, got.Action, tc.want)
		}
	}
}

func TestRouteConfirmPending(t *testing.T) {
	if got := route(t, "yes", types.ModeConfirmPending); got.Action != ActionContinueForm {
		t.Errorf("confirmation replies must reach the engine, got %s", got.Action)
	}
	if got := route(t, "cancel", types.ModeConfirmPending); got.Action != ActionCancelForm {
		t.Errorf("cancel must work during confirmation, got %s", got.Action)
	}
}

func TestRouteReportsTrigger(t *testing.T) {
	d := route(t, "could you call me back tomorrow?", types.ModeIdle)
	if d.Trigger != "call me" && d.Trigger != "call back" {
		t.Errorf("Trigger = %q, want the matched keyword", d.Trigger)
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := route(t, "book appointment please", types.ModeIdle)
		if d.Action != ActionOpenForm {
			t.Fatalf("iteration %d: %s", i, d.Action)
		}
	}
}

func TestChainRouterFallsBack(t *testing.T) {
	declining := RouterFunc(func(ctx context.Context, input string, mode types.Mode) (Decision, error) {
		return Decision{}, ErrUndecided
	})
	chain := NewChainRouter(declining, NewLocalRouter())

	d, err := chain.Route(context.Background(), "what are your hours?", types.ModeIdle)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.Action != ActionAskDocs {
		t.Errorf("Action = %s, want ask_docs", d.Action)
	}
}

func TestChainRouterFirstDecisionWins(t *testing.T) {
	opinionated := RouterFunc(func(ctx context.Context, input string, mode types.Mode) (Decision, error) {
		return Decision{Action: ActionOpenForm}, nil
	})
	chain := NewChainRouter(opinionated, NewLocalRouter())

	d, err := chain.Route(context.Background(), "what are your hours?", types.ModeIdle)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.Action != ActionOpenForm {
		t.Errorf("Action = %s, want the first router's decision", d.Action)
	}
}

func TestChainRouterAllFail(t *testing.T) {
	boom := errors.New("model unavailable")
	failing := RouterFunc(func(ctx context.Context, input string, mode types.Mode) (Decision, error) {
		return Decision{}, boom
	})
	if _, err := NewChainRouter(failing).Route(context.Background(), "hi", types.ModeIdle); !errors.Is(err, boom) {
		t.Errorf("err = %v, want the last router error", err)
	}
}
