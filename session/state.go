// Package session keeps the per-conversation state the assistant needs
// between turns: the conversation mode, the in-flight form record, and a
// bounded transcript. States are isolated by session ID; the ID travels on
// the context.
package session

import (
	"time"

	"github.com/tbxark/apptagent/form"
	"github.com/tbxark/apptagent/types"
)

// State is everything remembered about one conversation. The form engine is
// the only writer of Record internals; Mode is maintained by the routing
// layer through SyncMode.
type State struct {
	ID        string                   `json:"id"`
	Mode      types.Mode               `json:"mode"`
	Record    *form.Record             `json:"record,omitempty"`
	Turns     []types.ConversationTurn `json:"turns,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func NewState(id string, at time.Time) *State {
	return &State{
		ID:        id,
		Mode:      types.ModeIdle,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// AppendTurn records one utterance and bumps the update time. Retention is
// applied by the store on save, not here.
func (s *State) AppendTurn(turn types.ConversationTurn) {
	s.Turns = append(s.Turns, turn)
	s.UpdatedAt = turn.Timestamp
}

// SyncMode derives the conversation mode from the record. Terminal records
// are dropped, returning the session to idle with its transcript intact.
func (s *State) SyncMode() {
	if s.Record == nil {
		s.Mode = types.ModeIdle
		return
	}
	switch s.Record.Status {
	case types.StatusCollecting:
		s.Mode = types.ModeFormActive
	case types.StatusAwaitingConfirmation:
		s.Mode = types.ModeConfirmPending
	default:
		s.Record = nil
		s.Mode = types.ModeIdle
	}
}

// FormActive reports whether a form is in flight, in either collection or
// confirmation.
func (s *State) FormActive() bool {
	return s.Mode == types.ModeFormActive || s.Mode == types.ModeConfirmPending
}
