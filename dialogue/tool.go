package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/apptagent/structured"
	"github.com/tbxark/apptagent/types"
)

const replySystemPrompt = `You are the voice of an appointment booking assistant.
You will receive a JSON snapshot of the conversation step: the event that just
happened, the form being filled, and the outcome of the last user message.
Call the tool with a single short, friendly reply that moves the conversation
forward. Never invent field values, never skip the confirmation step, and keep
the reply under three sentences.`

type toolReply struct {
	Reply string `json:"reply" jsonschema:"description=The next assistant message shown to the user"`
}

type replySnapshot struct {
	Event         string            `json:"event"`
	Outcome       string            `json:"outcome,omitempty"`
	FocusField    string            `json:"focus_field,omitempty"`
	FocusPrompt   string            `json:"focus_prompt,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Collected     map[string]string `json:"collected,omitempty"`
	AppointmentID string            `json:"appointment_id,omitempty"`
}

// ToolBasedGenerator phrases replies with a chat model. The snapshot it sends
// carries only normalized values, so a wandering model still cannot change
// what was collected.
type ToolBasedGenerator struct {
	chain *structured.Chain[*Request, toolReply]
}

func NewToolBasedGenerator(chatModel model.ToolCallingChatModel, opts ...structured.Option) (*ToolBasedGenerator, error) {
	chain, err := structured.NewChain[*Request, toolReply](
		chatModel,
		buildReplyPrompt,
		"send_reply",
		"Send the next assistant message to the user.",
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("create reply chain failed: %w", err)
	}
	return &ToolBasedGenerator{chain: chain}, nil
}

func (g *ToolBasedGenerator) Render(ctx context.Context, req *Request) (string, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return "", fmt.Errorf("render reply failed: %w", err)
	}
	reply := strings.TrimSpace(result.Reply)
	if reply == "" {
		return "", fmt.Errorf("model returned empty reply for event %q", req.Event)
	}
	return reply, nil
}

func buildReplyPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	snap := replySnapshot{
		Event:         string(req.Event),
		AppointmentID: req.AppointmentID,
	}
	if req.Event == EventOpened || req.Event == EventStep {
		snap.Outcome = string(req.Outcome.Kind)
		snap.FocusField = req.Outcome.Field.Name
		snap.FocusPrompt = req.Outcome.Field.Prompt
		snap.Reason = req.Outcome.Value.Reason
	}
	if req.Record != nil {
		snap.Collected = make(map[string]string, len(req.Record.Fields))
		for _, f := range req.Record.Fields {
			v, ok := req.Record.Value(f.Name)
			if !ok || !v.Valid {
				continue
			}
			if f.Type == types.FieldDate {
				snap.Collected[f.Name] = types.FormatDateLong(v.Normalized)
			} else {
				snap.Collected[f.Name] = v.Normalized
			}
		}
	}

	body, err := sonic.MarshalString(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal reply snapshot failed: %w", err)
	}
	return []*schema.Message{
		schema.SystemMessage(replySystemPrompt),
		schema.UserMessage(body),
	}, nil
}
