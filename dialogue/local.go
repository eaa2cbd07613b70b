package dialogue

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/tbxark/apptagent/form"
	"github.com/tbxark/apptagent/types"
)

// LocalGenerator renders replies from fixed templates. Same request, same
// text; it is the default generator and the fallback behind the tool-based
// one.
type LocalGenerator struct{}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{}
}

func (g *LocalGenerator) Render(ctx context.Context, req *Request) (string, error) {
	switch req.Event {
	case EventOpened:
		return g.opened(req.Outcome), nil
	case EventStep:
		return g.step(req.Outcome), nil
	case EventConfirmed:
		return g.confirmed(req.Record, req.AppointmentID), nil
	case EventCancelled:
		return "No problem, I've cancelled the appointment request. Is there anything else I can help you with?", nil
	case EventFailure:
		return "Sorry, something went wrong on my end. Please try again.", nil
	case EventGreeting:
		return "Hello! You can ask me questions about our documents, or say 'book appointment' when you would like us to call you back.", nil
	default:
		return "", fmt.Errorf("unknown dialogue event %q", req.Event)
	}
}

func (g *LocalGenerator) opened(out form.Outcome) string {
	if out.Kind == form.OutcomeSummary {
		return g.summary(out.Record)
	}
	return "I'd be happy to help you schedule a call! Let me collect some information. First, " + lowerFirst(out.Field.Prompt)
}

func (g *LocalGenerator) step(out form.Outcome) string {
	switch out.Kind {
	case form.OutcomePrompt:
		return g.ack(out) + out.Field.Prompt
	case form.OutcomeRetry:
		msg := capitalize(out.Value.Reason) + ". " + out.Field.Prompt
		if out.RetryExceeded {
			msg += " If you'd rather stop, just say 'cancel'."
		}
		return msg
	case form.OutcomeSummary:
		return g.summary(out.Record)
	case form.OutcomeConfirmAgain:
		return "Please reply with 'yes' to confirm the information is correct, or 'no' if you'd like to make changes."
	case form.OutcomeReopened:
		if out.ClearedAll {
			return "No problem! Let's start over. " + out.Field.Prompt
		}
		return fmt.Sprintf("Sure, let's update your %s. %s", types.DisplayName(out.Field.Name), out.Field.Prompt)
	case form.OutcomeCancelled:
		return "No problem, I've cancelled the appointment request. Is there anything else I can help you with?"
	default:
		return "Could you rephrase that?"
	}
}

// ack acknowledges the value just stored before asking the next question.
func (g *LocalGenerator) ack(out form.Outcome) string {
	if !out.Stored {
		return ""
	}
	if out.Prev.Type == types.FieldName {
		return fmt.Sprintf("Great! Nice to meet you, %s. ", out.Value.Normalized)
	}
	if out.Prev.Type == types.FieldEmail {
		return "Perfect! "
	}
	return "Great! "
}

func (g *LocalGenerator) summary(rec *form.Record) string {
	var b strings.Builder
	b.WriteString("Perfect! Let me confirm your information:\n")
	for _, f := range rec.Fields {
		v, ok := rec.Value(f.Name)
		if !ok || !v.Valid {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", capitalize(types.DisplayName(f.Name)), displayValue(f, v)))
	}
	b.WriteString("\nIs this information correct? Please reply with 'yes' to confirm or 'no' to make changes.")
	return b.String()
}

func (g *LocalGenerator) confirmed(rec *form.Record, appointmentID string) string {
	name := rec.Normalized(form.FieldName)
	phone := rec.Normalized(form.FieldPhone)
	email := rec.Normalized(form.FieldEmail)
	date := types.FormatDateLong(rec.Normalized(form.FieldDate))
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Thank you, %s! Your appointment request is confirmed.\n", name))
	b.WriteString(fmt.Sprintf("We will call you at %s on or before %s, and a confirmation email will go to %s.\n", phone, date, email))
	if appointmentID != "" {
		b.WriteString(fmt.Sprintf("Your reference number is %s.\n", appointmentID))
	}
	b.WriteString("Is there anything else I can help you with today?")
	return b.String()
}

func displayValue(f types.FieldSpec, v types.FieldValue) string {
	if f.Type == types.FieldDate {
		return types.FormatDateLong(v.Normalized)
	}
	return v.Normalized
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
