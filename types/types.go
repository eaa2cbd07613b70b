package types

import "time"

// Status is the lifecycle state of a form record.
type Status string

const (
	StatusCollecting           Status = "collecting"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusCancelled            Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Mode is the conversation mode of a session.
type Mode string

const (
	ModeIdle           Mode = "idle"
	ModeFormActive     Mode = "form-active"
	ModeConfirmPending Mode = "confirm-pending"
)

// FieldType selects the extractor used for a form field.
type FieldType string

const (
	FieldName  FieldType = "name"
	FieldEmail FieldType = "email"
	FieldPhone FieldType = "phone"
	FieldDate  FieldType = "date"
)

// FieldSpec declares one collectable form field. ValidatorRef names an entry
// in the validator registry; empty means the type default.
type FieldSpec struct {
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	Required     bool      `json:"required"`
	Prompt       string    `json:"prompt"`
	ValidatorRef string    `json:"validator_ref,omitempty"`
}

// FieldValue is the outcome of extracting one field from raw input. Values
// are immutable: a re-extraction produces a replacement, never a mutation.
type FieldValue struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized,omitempty"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
}

// Invalid builds a failed FieldValue carrying the failure reason.
func Invalid(raw, reason string) FieldValue {
	return FieldValue{Raw: raw, Valid: false, Reason: reason}
}

// ValidValue builds a successful FieldValue with its normalized form.
func ValidValue(raw, normalized string) FieldValue {
	return FieldValue{Raw: raw, Normalized: normalized, Valid: true}
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one utterance in a session transcript. Turns are
// append-only; retention is bounded by the session history policy.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// UserTurn builds a user turn stamped with the given time.
func UserTurn(text string, at time.Time) ConversationTurn {
	return ConversationTurn{Role: RoleUser, Text: text, Timestamp: at}
}

// AssistantTurn builds an assistant turn stamped with the given time.
func AssistantTurn(text string, at time.Time) ConversationTurn {
	return ConversationTurn{Role: RoleAssistant, Text: text, Timestamp: at}
}
