package session

import (
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/apptagent/types"
)

// DefaultHistoryLimit bounds the transcript at the last five exchange pairs.
const DefaultHistoryLimit = 10

// Trimmer bounds a transcript before it is persisted.
type Trimmer interface {
	Trim(turns []types.ConversationTurn) []types.ConversationTurn
}

// KeepLastN keeps the last N turns. N <= 0 keeps nothing.
type KeepLastN struct {
	N int
}

func (t KeepLastN) Trim(turns []types.ConversationTurn) []types.ConversationTurn {
	if t.N <= 0 {
		return nil
	}
	if len(turns) <= t.N {
		return turns
	}
	return turns[len(turns)-t.N:]
}

// ToModelMessages converts a transcript into chat messages for model calls.
// Unknown roles are skipped rather than guessed at.
func ToModelMessages(turns []types.ConversationTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case types.RoleUser:
			out = append(out, schema.UserMessage(turn.Text))
		case types.RoleAssistant:
			out = append(out, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return out
}
