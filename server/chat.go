package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/tbxark/apptagent/agent"
	"github.com/tbxark/apptagent/router"
	"github.com/tbxark/apptagent/types"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID     string        `json:"session_id"`
	Reply         string        `json:"reply"`
	Action        router.Action `json:"action"`
	Mode          types.Mode    `json:"mode"`
	AppointmentID string        `json:"appointment_id,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// chat runs one turn with per-session serialization.
func (s *Server) chat(ctx context.Context, sessionID, message string) (*agent.Reply, error) {
	lock := s.locks.acquire(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return s.assistant.HandleMessage(ctx, sessionID, message)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := s.chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		slog.Error("chat turn failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat turn failed")
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(req.SessionID, reply))
}

func toChatResponse(sessionID string, reply *agent.Reply) chatResponse {
	return chatResponse{
		SessionID:     sessionID,
		Reply:         reply.Text,
		Action:        reply.Action,
		Mode:          reply.Mode,
		AppointmentID: reply.AppointmentID,
		Error:         reply.Err,
	}
}

// handleChatWS speaks the chat DTOs over a websocket, one turn per message.
// A session ID assigned on the first turn sticks for the connection.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("websocket close", "error", closeErr)
		}
	}()

	ctx := r.Context()
	var connSession string

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("websocket closed by client")
			} else {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req chatRequest
		if err := sonic.Unmarshal(data, &req); err != nil {
			if err := s.writeWS(ctx, ws, map[string]string{"error": "malformed message"}); err != nil {
				return
			}
			continue
		}
		if strings.TrimSpace(req.Message) == "" {
			if err := s.writeWS(ctx, ws, map[string]string{"error": "message is required"}); err != nil {
				return
			}
			continue
		}

		switch {
		case req.SessionID != "":
			connSession = req.SessionID
		case connSession == "":
			connSession = uuid.NewString()
		}

		reply, err := s.chat(ctx, connSession, req.Message)
		if err != nil {
			slog.Error("chat turn failed", "session", connSession, "error", err)
			if err := s.writeWS(ctx, ws, map[string]string{"error": "chat turn failed"}); err != nil {
				return
			}
			continue
		}
		if err := s.writeWS(ctx, ws, toChatResponse(connSession, reply)); err != nil {
			slog.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) writeWS(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
