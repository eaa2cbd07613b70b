// Package agent wires routing, the form engine, document QA, dialogue, and
// the appointment sink into one conversational assistant.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/apptagent/dialogue"
	"github.com/tbxark/apptagent/docqa"
	"github.com/tbxark/apptagent/form"
	"github.com/tbxark/apptagent/router"
	"github.com/tbxark/apptagent/session"
	"github.com/tbxark/apptagent/sink"
	"github.com/tbxark/apptagent/types"
)

// Reply is the outcome of one conversation turn.
type Reply struct {
	Text          string        `json:"text"`
	Action        router.Action `json:"action"`
	Mode          types.Mode    `json:"mode"`
	Answer        *docqa.Answer `json:"answer,omitempty"`
	AppointmentID string        `json:"appointment_id,omitempty"`
	Err           string        `json:"error,omitempty"`
}

// Assistant handles messages end to end: load session, route, act, phrase
// the reply, save session. Collaborator failures become apologetic replies
// with the session preserved; only losing the session itself is a hard
// error.
type Assistant struct {
	router   router.Router
	guard    *router.LocalRouter
	engine   *form.Engine
	fields   []types.FieldSpec
	answerer docqa.Answerer
	dialogue dialogue.Generator
	fallback *dialogue.LocalGenerator
	sessions session.Store
	bookings sink.Sink
	timeout  time.Duration
	clock    func() time.Time
}

type Option func(*Assistant)

// WithRouter replaces the deterministic local router, e.g. with a chain that
// consults a model first.
func WithRouter(r router.Router) Option {
	return func(a *Assistant) { a.router = r }
}

// WithGuard replaces the local policy used when the router fails. Lets
// configured trigger and cancel phrases reach the fallback path too.
func WithGuard(g *router.LocalRouter) Option {
	return func(a *Assistant) { a.guard = g }
}

// WithDialogue replaces the deterministic reply generator.
func WithDialogue(g dialogue.Generator) Option {
	return func(a *Assistant) { a.dialogue = g }
}

// WithEngine replaces the form engine.
func WithEngine(e *form.Engine) Option {
	return func(a *Assistant) { a.engine = e }
}

// WithFields replaces the booking form fields.
func WithFields(fields []types.FieldSpec) Option {
	return func(a *Assistant) { a.fields = fields }
}

// WithSessions replaces the in-memory session store.
func WithSessions(s session.Store) Option {
	return func(a *Assistant) { a.sessions = s }
}

// WithTimeout bounds each collaborator call that may hit the network.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.timeout = d }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.clock = now }
}

// NewAssistant builds an assistant around an answerer and a booking sink.
// Everything else defaults to the deterministic implementations.
func NewAssistant(answerer docqa.Answerer, bookings sink.Sink, opts ...Option) *Assistant {
	a := &Assistant{
		guard:    router.NewLocalRouter(),
		engine:   form.NewEngine(),
		fields:   form.BookingFields(),
		answerer: answerer,
		fallback: dialogue.NewLocalGenerator(),
		sessions: session.NewMemoryStore(),
		bookings: bookings,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.router == nil {
		a.router = a.guard
	}
	if a.dialogue == nil {
		a.dialogue = a.fallback
	}
	return a
}

// HandleMessage processes one user message for the session and returns the
// assistant's reply.
func (a *Assistant) HandleMessage(ctx context.Context, sessionID, input string) (*Reply, error) {
	ctx = session.WithSessionID(ctx, sessionID)

	state, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, collaboratorErr("session store", err)
	}
	now := a.clock()
	state.AppendTurn(types.UserTurn(input, now))
	history := session.ToModelMessages(state.Turns[:len(state.Turns)-1])

	decision, err := a.router.Route(ctx, input, state.Mode)
	if err != nil {
		slog.Warn("router failed, using local policy", "error", err)
		decision, _ = a.guard.Route(ctx, input, state.Mode)
	}
	slog.Debug("routed", "session", state.ID, "action", decision.Action, "trigger", decision.Trigger, "mode", state.Mode)

	reply := a.dispatch(ctx, state, decision, input, history, now)
	reply.Mode = state.Mode

	state.AppendTurn(types.AssistantTurn(reply.Text, now))
	if err := a.sessions.Save(ctx, state); err != nil {
		return nil, collaboratorErr("session store", err)
	}
	return reply, nil
}

func (a *Assistant) dispatch(ctx context.Context, state *session.State, decision router.Decision, input string, history []*schema.Message, now time.Time) *Reply {
	switch decision.Action {
	case router.ActionOpenForm:
		return a.openForm(ctx, state, now)
	case router.ActionContinueForm:
		return a.continueForm(ctx, state, input, now)
	case router.ActionCancelForm:
		return a.cancelForm(ctx, state)
	case router.ActionAskDocs:
		return a.askDocs(ctx, input, history)
	default:
		return a.directReply(ctx)
	}
}

func (a *Assistant) openForm(ctx context.Context, state *session.State, now time.Time) *Reply {
	rec, outcome := a.engine.Start(a.fields, now)
	state.Record = rec
	state.SyncMode()

	text := a.render(ctx, &dialogue.Request{Event: dialogue.EventOpened, Outcome: outcome, Record: rec})
	return &Reply{Text: text, Action: router.ActionOpenForm}
}

func (a *Assistant) continueForm(ctx context.Context, state *session.State, input string, now time.Time) *Reply {
	if state.Record == nil {
		// mode said a form was open but none is; recover by routing idle
		slog.Warn("form-active session has no record", "session", state.ID)
		state.SyncMode()
		decision, _ := a.guard.Route(ctx, input, state.Mode)
		return a.dispatch(ctx, state, decision, input, nil, now)
	}

	outcome, err := a.engine.Submit(state.Record, input, now)
	if err != nil {
		slog.Error("form submit failed", "session", state.ID, "error", err)
		return a.failure(ctx, "form engine", err)
	}

	if outcome.Kind == form.OutcomeConfirmed {
		return a.deliver(ctx, state, now)
	}

	state.SyncMode()
	text := a.render(ctx, &dialogue.Request{Event: dialogue.EventStep, Outcome: outcome, Record: state.Record})
	return &Reply{Text: text, Action: router.ActionContinueForm}
}

// deliver hands the accepted record to the sink and only then finalizes it,
// so a confirmed form is always a stored one. On sink failure the record
// stays in confirmation and the user can try again.
func (a *Assistant) deliver(ctx context.Context, state *session.State, now time.Time) *Reply {
	rec := state.Record

	appt, err := sink.FromRecord(rec, state.ID, now)
	if err != nil {
		slog.Error("record not deliverable", "session", state.ID, "error", err)
		return a.failure(ctx, "sink", err)
	}

	sctx, cancel := a.bound(ctx)
	defer cancel()
	if err := a.bookings.Store(sctx, appt); err != nil {
		slog.Error("appointment handoff failed", "session", state.ID, "error", err)
		return a.failure(ctx, "sink", err)
	}

	if err := a.engine.Finalize(rec); err != nil {
		// stored but not finalizable should be impossible; surface loudly
		slog.Error("finalize after handoff failed", "session", state.ID, "error", err)
		return a.failure(ctx, "form engine", err)
	}

	text := a.render(ctx, &dialogue.Request{
		Event:         dialogue.EventConfirmed,
		Record:        rec,
		AppointmentID: appt.ID,
	})
	state.SyncMode()
	return &Reply{Text: text, Action: router.ActionContinueForm, AppointmentID: appt.ID}
}

func (a *Assistant) cancelForm(ctx context.Context, state *session.State) *Reply {
	if state.Record != nil {
		if _, err := a.engine.Cancel(state.Record); err != nil {
			slog.Warn("cancel on settled record", "session", state.ID, "error", err)
		}
	}
	state.SyncMode()
	text := a.render(ctx, &dialogue.Request{Event: dialogue.EventCancelled})
	return &Reply{Text: text, Action: router.ActionCancelForm}
}

func (a *Assistant) askDocs(ctx context.Context, question string, history []*schema.Message) *Reply {
	qctx, cancel := a.bound(ctx)
	defer cancel()

	answer, err := a.answerer.Answer(qctx, question, history)
	if err != nil {
		slog.Error("document answer failed", "error", err)
		return a.failure(ctx, "answerer", err)
	}
	return &Reply{Text: answer.Text, Action: router.ActionAskDocs, Answer: answer}
}

func (a *Assistant) directReply(ctx context.Context) *Reply {
	text := a.render(ctx, &dialogue.Request{Event: dialogue.EventGreeting})
	return &Reply{Text: text, Action: router.ActionDirectReply}
}

// failure keeps the conversation alive: the user gets an apology, the reply
// carries the wrapped error, and session state is left as it was.
func (a *Assistant) failure(ctx context.Context, collaborator string, err error) *Reply {
	werr := collaboratorErr(collaborator, err)
	text := a.render(ctx, &dialogue.Request{Event: dialogue.EventFailure})
	return &Reply{Text: text, Action: router.ActionDirectReply, Err: werr.Error()}
}

// render never lets a dialogue failure take down a turn: the configured
// generator is tried first, then the deterministic one.
func (a *Assistant) render(ctx context.Context, req *dialogue.Request) string {
	rctx, cancel := a.bound(ctx)
	defer cancel()

	text, err := a.dialogue.Render(rctx, req)
	if err == nil {
		return text
	}
	slog.Warn("dialogue render failed, using local wording", "event", req.Event, "error", err)
	text, err = a.fallback.Render(ctx, req)
	if err != nil {
		slog.Error("local dialogue render failed", "event", req.Event, "error", err)
		return "Sorry, something went wrong on my end. Please try again."
	}
	return text
}

func (a *Assistant) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
