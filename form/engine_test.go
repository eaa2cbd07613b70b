package form

import (
	"strings"
	"testing"
	"time"

	"github.com/tbxark/apptagent/types"
)

// ref is 2026-03-11, a Wednesday.
var ref = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

func mustSubmit(t *testing.T, e *Engine, rec *Record, input string) Outcome {
	t.Helper()
	out, err := e.Submit(rec, input, ref)
	if err != nil {
		t.Fatalf("submit %q: %v", input, err)
	}
	return out
}

func TestEngineHappyPath(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, out := e.Start(BookingFields(), ref)

	if out.Kind != OutcomePrompt || out.Field.Name != FieldName {
		t.Fatalf("start outcome = %s field %s, want prompt for name", out.Kind, out.Field.Name)
	}
	if rec.Status != types.StatusCollecting || rec.Focus != FieldName {
		t.Fatalf("start record status=%s focus=%s", rec.Status, rec.Focus)
	}

	steps := []struct {
		input     string
		wantKind  OutcomeKind
		wantFocus string
	}{
		{"john smith", OutcomePrompt, FieldEmail},
		{"john@smith.com", OutcomePrompt, FieldPhone},
		{"555-123-4567", OutcomePrompt, FieldDate},
		{"next friday", OutcomeSummary, ""},
	}
	for _, s := range steps {
		out = mustSubmit(t, e, rec, s.input)
		if out.Kind != s.wantKind {
			t.Fatalf("input %q: outcome %s, want %s", s.input, out.Kind, s.wantKind)
		}
		if rec.Focus != s.wantFocus {
			t.Fatalf("input %q: focus %s, want %s", s.input, rec.Focus, s.wantFocus)
		}
	}

	if rec.Status != types.StatusAwaitingConfirmation {
		t.Fatalf("status = %s, want awaiting_confirmation", rec.Status)
	}
	if got := rec.Normalized(FieldDate); got != "2026-03-13" {
		t.Errorf("date = %s, want 2026-03-13", got)
	}
	if got := rec.Normalized(FieldName); got != "John Smith" {
		t.Errorf("name = %s, want John Smith", got)
	}

	out = mustSubmit(t, e, rec, "yes")
	if out.Kind != OutcomeConfirmed {
		t.Fatalf("confirmation outcome = %s, want confirmed", out.Kind)
	}
	if rec.Status != types.StatusAwaitingConfirmation {
		t.Fatalf("status moved to %s before finalize", rec.Status)
	}

	if err := e.Finalize(rec); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if rec.Status != types.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", rec.Status)
	}
	if !rec.Complete() {
		t.Error("confirmed record has missing required fields")
	}
}

func TestEngineInvalidInputKeepsFocus(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)

	out := mustSubmit(t, e, rec, "jo")
	if out.Kind != OutcomeRetry {
		t.Fatalf("outcome = %s, want retry", out.Kind)
	}
	if rec.Focus != FieldName {
		t.Fatalf("focus moved to %s on invalid input", rec.Focus)
	}
	if out.Value.Valid || out.Value.Reason == "" {
		t.Fatalf("retry value = %+v, want invalid with reason", out.Value)
	}
	if rec.Retries[FieldName] != 1 {
		t.Fatalf("retries = %d, want 1", rec.Retries[FieldName])
	}

	stored, ok := rec.Value(FieldName)
	if !ok || stored.Valid {
		t.Fatalf("invalid value not stored: %+v", stored)
	}

	out = mustSubmit(t, e, rec, "john smith")
	if out.Kind != OutcomePrompt || rec.Focus != FieldEmail {
		t.Fatalf("recovery outcome = %s focus %s", out.Kind, rec.Focus)
	}
	if _, ok := rec.Retries[FieldName]; ok {
		t.Error("retry counter not reset after valid input")
	}
	if replaced, _ := rec.Value(FieldName); !replaced.Valid {
		t.Error("valid value did not replace the invalid one")
	}
}

func TestEngineRetryLimit(t *testing.T) {
	t.Parallel()
	e := NewEngine(WithRetryLimit(1))
	rec, _ := e.Start(BookingFields(), ref)

	out := mustSubmit(t, e, rec, "x")
	if out.RetryExceeded {
		t.Fatal("first failure already exceeded the limit")
	}
	out = mustSubmit(t, e, rec, "x")
	if !out.RetryExceeded {
		t.Fatal("second failure should exceed a limit of 1")
	}
	if rec.Status != types.StatusCollecting || rec.Focus != FieldName {
		t.Fatalf("exceeded retries changed state: status=%s focus=%s", rec.Status, rec.Focus)
	}
}

func TestEngineUnboundedRetriesByDefault(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)
	for i := 0; i < 25; i++ {
		out := mustSubmit(t, e, rec, "nope")
		if out.RetryExceeded {
			t.Fatalf("attempt %d exceeded with no limit configured", i+1)
		}
	}
}

func fillBooking(t *testing.T, e *Engine, rec *Record) {
	t.Helper()
	for _, input := range []string{"john smith", "john@smith.com", "555-123-4567", "next friday"} {
		mustSubmit(t, e, rec, input)
	}
	if rec.Status != types.StatusAwaitingConfirmation {
		t.Fatalf("fill ended in %s", rec.Status)
	}
}

func TestEngineDenyClearsEverything(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)
	fillBooking(t, e, rec)

	out := mustSubmit(t, e, rec, "no")
	if out.Kind != OutcomeReopened || !out.ClearedAll {
		t.Fatalf("outcome = %+v, want reopened with all cleared", out)
	}
	if rec.Status != types.StatusCollecting || rec.Focus != FieldName {
		t.Fatalf("status=%s focus=%s after deny", rec.Status, rec.Focus)
	}
	if len(rec.Values) != 0 {
		t.Fatalf("values survived a deny: %v", rec.Values)
	}
}

func TestEngineTargetedCorrection(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)
	fillBooking(t, e, rec)

	out := mustSubmit(t, e, rec, "change my email")
	if out.Kind != OutcomeReopened || out.ClearedAll {
		t.Fatalf("outcome = %+v, want targeted reopen", out)
	}
	if rec.Focus != FieldEmail {
		t.Fatalf("focus = %s, want email", rec.Focus)
	}
	if _, ok := rec.Value(FieldEmail); ok {
		t.Error("email value not cleared")
	}
	if rec.Normalized(FieldName) != "John Smith" {
		t.Error("untouched field lost its value")
	}

	out = mustSubmit(t, e, rec, "other@mail.com")
	if out.Kind != OutcomeSummary {
		t.Fatalf("outcome after refill = %s, want summary", out.Kind)
	}
	if rec.Normalized(FieldEmail) != "other@mail.com" {
		t.Errorf("email = %s", rec.Normalized(FieldEmail))
	}
}

func TestEngineCorrectionPhrases(t *testing.T) {
	t.Parallel()
	tests := []struct {
		reply     string
		wantFocus string
	}{
		{"change my email", FieldEmail},
		{"no, the phone is wrong", FieldPhone},
		{"update the date please", FieldDate},
		{"fix the name", FieldName},
	}
	for _, tt := range tests {
		e := NewEngine()
		rec, _ := e.Start(BookingFields(), ref)
		fillBooking(t, e, rec)
		out := mustSubmit(t, e, rec, tt.reply)
		if out.Kind != OutcomeReopened || out.ClearedAll {
			t.Errorf("%q: outcome = %+v, want targeted reopen", tt.reply, out)
			continue
		}
		if rec.Focus != tt.wantFocus {
			t.Errorf("%q: focus = %s, want %s", tt.reply, rec.Focus, tt.wantFocus)
		}
	}
}

func TestEngineUnrecognizedConfirmationReply(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)
	fillBooking(t, e, rec)

	for _, reply := range []string{"maybe", "what is your refund policy?", "hmm"} {
		out := mustSubmit(t, e, rec, reply)
		if out.Kind != OutcomeConfirmAgain {
			t.Errorf("%q: outcome = %s, want confirm_again", reply, out.Kind)
		}
		if rec.Status != types.StatusAwaitingConfirmation {
			t.Fatalf("%q changed status to %s", reply, rec.Status)
		}
	}

	out := mustSubmit(t, e, rec, "yes, that's correct")
	if out.Kind != OutcomeConfirmed {
		t.Fatalf("affirmative after re-asks = %s", out.Kind)
	}
}

func TestEngineCancel(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)
	mustSubmit(t, e, rec, "john smith")
	mustSubmit(t, e, rec, "john@smith.com")

	out, err := e.Cancel(rec)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.Kind != OutcomeCancelled || rec.Status != types.StatusCancelled {
		t.Fatalf("outcome=%s status=%s", out.Kind, rec.Status)
	}

	if _, err := e.Cancel(rec); err == nil {
		t.Error("cancelling a cancelled record should error")
	}
	if _, err := e.Submit(rec, "hello", ref); err == nil {
		t.Error("submitting to a cancelled record should error")
	}
}

func TestEngineFinalizeGuards(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)

	if err := e.Finalize(rec); err == nil {
		t.Error("finalize while collecting should error")
	}

	fillBooking(t, e, rec)
	if err := e.Finalize(rec); err != nil {
		t.Errorf("finalize on complete record: %v", err)
	}
	if err := e.Finalize(rec); err == nil {
		t.Error("double finalize should error")
	}
}

func TestEngineCustomValidator(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register("corp_email", func(normalized string) string {
		if !strings.HasSuffix(normalized, "@corp.example") {
			return "email must be a corp.example address"
		}
		return ""
	})
	fields := []types.FieldSpec{
		{Name: "email", Type: types.FieldEmail, Required: true, Prompt: "Email?", ValidatorRef: "corp_email"},
	}
	e := NewEngine(WithValidators(reg))
	rec, _ := e.Start(fields, ref)

	out := mustSubmit(t, e, rec, "user@gmail.com")
	if out.Kind != OutcomeRetry {
		t.Fatalf("outcome = %s, want retry from validator", out.Kind)
	}
	if out.Value.Reason != "email must be a corp.example address" {
		t.Errorf("reason = %q", out.Value.Reason)
	}

	out = mustSubmit(t, e, rec, "user@corp.example")
	if out.Kind != OutcomeSummary {
		t.Fatalf("outcome = %s, want summary", out.Kind)
	}
}

func TestEngineDocQuestionMidFormIsInvalidInput(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	rec, _ := e.Start(BookingFields(), ref)
	mustSubmit(t, e, rec, "john smith")

	out := mustSubmit(t, e, rec, "what products do you offer?")
	if out.Kind != OutcomeRetry {
		t.Fatalf("outcome = %s, want retry", out.Kind)
	}
	if rec.Focus != FieldEmail {
		t.Fatalf("focus = %s, want email", rec.Focus)
	}
}
