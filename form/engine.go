package form

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tbxark/apptagent/extract"
	"github.com/tbxark/apptagent/types"
)

// OutcomeKind tags what the engine decided for one input.
type OutcomeKind string

const (
	// OutcomePrompt asks for the focused field (form start or after a valid
	// value was stored).
	OutcomePrompt OutcomeKind = "prompt"
	// OutcomeRetry re-asks the focused field after invalid input.
	OutcomeRetry OutcomeKind = "retry"
	// OutcomeSummary presents the collected values for confirmation.
	OutcomeSummary OutcomeKind = "summary"
	// OutcomeConfirmAgain re-asks for a yes/no after an unrecognized
	// confirmation reply.
	OutcomeConfirmAgain OutcomeKind = "confirm_again"
	// OutcomeConfirmed means the user accepted the summary; the record is
	// ready for the sink. Status moves to confirmed via Finalize only after
	// the handoff succeeds.
	OutcomeConfirmed OutcomeKind = "confirmed"
	// OutcomeReopened means a field (or all fields) was cleared during
	// confirmation and collection resumed.
	OutcomeReopened OutcomeKind = "reopened"
	// OutcomeCancelled means the record reached the cancelled state.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the structured result of one engine step. Rendering it into
// user-visible text is the dialogue package's job.
type Outcome struct {
	Kind          OutcomeKind
	Field         types.FieldSpec
	Prev          types.FieldSpec
	Value         types.FieldValue
	Record        *Record
	ClearedAll    bool
	RetryExceeded bool
	Stored        bool
}

// Engine applies the form transition rules to records. It is stateless apart
// from configuration; all per-conversation state lives in the Record.
type Engine struct {
	rules      extract.Rules
	validators *Registry
	retryLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules sets the extractor bounds.
func WithRules(r extract.Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithValidators sets the validator registry resolved by field
// validator refs.
func WithValidators(reg *Registry) Option {
	return func(e *Engine) { e.validators = reg }
}

// WithRetryLimit sets the per-field retry limit; 0 means unbounded.
func WithRetryLimit(n int) Option {
	return func(e *Engine) { e.retryLimit = n }
}

// NewEngine builds an engine with default rules, an empty validator registry
// and unbounded retries.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:      extract.DefaultRules(),
		validators: NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start opens a new record over the given fields. The outcome prompts for
// the first field, or goes straight to the summary when nothing is required.
func (e *Engine) Start(fields []types.FieldSpec, at time.Time) (*Record, Outcome) {
	rec := NewRecord(fields, at)
	if rec.Focus == "" {
		rec.Status = types.StatusAwaitingConfirmation
		return rec, Outcome{Kind: OutcomeSummary, Record: rec}
	}
	spec, _ := rec.Spec(rec.Focus)
	return rec, Outcome{Kind: OutcomePrompt, Field: spec, Record: rec}
}

// Submit feeds one user input into the record. Calling it on a terminal
// record is a caller bug and returns an error.
func (e *Engine) Submit(rec *Record, input string, now time.Time) (Outcome, error) {
	switch rec.Status {
	case types.StatusCollecting:
		return e.collect(rec, input, now), nil
	case types.StatusAwaitingConfirmation:
		return e.confirm(rec, input), nil
	default:
		return Outcome{}, fmt.Errorf("submit on %s record", rec.Status)
	}
}

// Cancel moves a non-terminal record to cancelled. The caller discards the
// record afterwards.
func (e *Engine) Cancel(rec *Record) (Outcome, error) {
	if rec.Status.Terminal() {
		return Outcome{}, fmt.Errorf("cancel on %s record", rec.Status)
	}
	rec.Status = types.StatusCancelled
	rec.Focus = ""
	return Outcome{Kind: OutcomeCancelled, Record: rec}, nil
}

// Finalize marks an accepted record confirmed. It is called after the sink
// handoff succeeded, so confirmed always implies a completed, delivered form.
func (e *Engine) Finalize(rec *Record) error {
	if rec.Status != types.StatusAwaitingConfirmation {
		return fmt.Errorf("finalize on %s record", rec.Status)
	}
	if !rec.Complete() {
		return fmt.Errorf("finalize with missing required fields")
	}
	rec.Status = types.StatusConfirmed
	rec.Focus = ""
	return nil
}

func (e *Engine) collect(rec *Record, input string, now time.Time) Outcome {
	if rec.Focus == "" {
		rec.Focus = rec.nextFocus()
	}
	spec, ok := rec.Spec(rec.Focus)
	if !ok {
		// focus must name a declared field; recompute when it does not
		rec.Focus = rec.nextFocus()
		spec, _ = rec.Spec(rec.Focus)
	}

	fv := extract.Extract(spec.Type, input, now, e.rules)
	if fv.Valid {
		if reason := e.validators.Check(spec, fv.Normalized); reason != "" {
			fv = types.Invalid(input, reason)
		}
	}
	rec.Values[spec.Name] = fv

	if !fv.Valid {
		rec.Retries[spec.Name]++
		exceeded := e.retryLimit > 0 && rec.Retries[spec.Name] > e.retryLimit
		slog.Debug("field rejected", "field", spec.Name, "reason", fv.Reason, "retries", rec.Retries[spec.Name])
		return Outcome{Kind: OutcomeRetry, Field: spec, Value: fv, Record: rec, RetryExceeded: exceeded}
	}

	delete(rec.Retries, spec.Name)
	slog.Debug("field stored", "field", spec.Name, "value", fv.Normalized)
	rec.Focus = rec.nextFocus()
	if rec.Focus == "" {
		rec.Status = types.StatusAwaitingConfirmation
		return Outcome{Kind: OutcomeSummary, Prev: spec, Value: fv, Record: rec, Stored: true}
	}
	next, _ := rec.Spec(rec.Focus)
	return Outcome{Kind: OutcomePrompt, Field: next, Prev: spec, Value: fv, Record: rec, Stored: true}
}

func (e *Engine) confirm(rec *Record, input string) Outcome {
	norm := normalizeReply(input)

	if field := e.correctionTarget(rec, norm); field != "" {
		rec.clearField(field)
		rec.Status = types.StatusCollecting
		rec.Focus = rec.nextFocus()
		spec, _ := rec.Spec(rec.Focus)
		slog.Debug("confirmation correction", "field", field)
		return Outcome{Kind: OutcomeReopened, Field: spec, Record: rec}
	}

	if isAffirmative(norm) {
		return Outcome{Kind: OutcomeConfirmed, Record: rec}
	}

	if isNegative(norm) {
		rec.clearAll()
		rec.Status = types.StatusCollecting
		rec.Focus = rec.nextFocus()
		spec, _ := rec.Spec(rec.Focus)
		slog.Debug("confirmation rejected, restarting")
		return Outcome{Kind: OutcomeReopened, Field: spec, Record: rec, ClearedAll: true}
	}

	return Outcome{Kind: OutcomeConfirmAgain, Record: rec}
}

// correctionTarget finds the field a confirmation reply asks to change, e.g.
// "change my email" or "no, the phone is wrong". Field names are matched as
// whole words; the first declared match wins.
func (e *Engine) correctionTarget(rec *Record, norm string) string {
	if !containsAnyWord(norm, correctionWords) && !containsAnyWord(norm, negativeWords) {
		return ""
	}
	tokens := replyTokens(norm)
	for _, f := range rec.Fields {
		for _, part := range strings.Fields(types.DisplayName(f.Name)) {
			if tokens[part] {
				return f.Name
			}
		}
	}
	return ""
}

var (
	affirmativeWords = []string{"yes", "y", "yep", "yeah", "yup", "correct", "confirm", "confirmed", "sure", "ok", "okay", "right"}
	affirmPhrases    = []string{"that's correct", "thats correct", "that is correct", "that's right", "thats right", "that is right", "looks good", "all good", "sounds good"}
	negativeWords    = []string{"no", "n", "nope", "incorrect", "wrong"}
	correctionWords  = []string{"change", "update", "edit", "fix", "modify", "redo", "correct"}
)

func normalizeReply(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func replyTokens(norm string) map[string]bool {
	tokens := map[string]bool{}
	for _, t := range strings.Fields(norm) {
		tokens[strings.Trim(t, ".,!?;:'\"")] = true
	}
	return tokens
}

func firstToken(norm string) string {
	fields := strings.Fields(norm)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!?;:'\"")
}

func isAffirmative(norm string) bool {
	trimmed := strings.Trim(norm, ".,!?")
	for _, p := range affirmPhrases {
		if trimmed == p {
			return true
		}
	}
	first := firstToken(norm)
	for _, w := range affirmativeWords {
		if trimmed == w || first == w {
			return true
		}
	}
	return false
}

func isNegative(norm string) bool {
	trimmed := strings.Trim(norm, ".,!?")
	first := firstToken(norm)
	for _, w := range negativeWords {
		if trimmed == w || first == w {
			return true
		}
	}
	return false
}

func containsAnyWord(norm string, words []string) bool {
	tokens := replyTokens(norm)
	for _, w := range words {
		if tokens[w] {
			return true
		}
	}
	return false
}
