// Package server exposes the assistant and the operator surface over HTTP.
package server

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tbxark/apptagent/agent"
	"github.com/tbxark/apptagent/docqa"
	"github.com/tbxark/apptagent/sink"
)

// Server routes HTTP traffic to the assistant, the appointment store and the
// document index.
type Server struct {
	assistant    *agent.Assistant
	appointments sink.Store
	index        *docqa.Index
	locks        sessionLocks
}

// NewServer builds the HTTP surface. The index may be nil when document
// ingestion is disabled.
func NewServer(assistant *agent.Assistant, appointments sink.Store, index *docqa.Index) *Server {
	return &Server{
		assistant:    assistant,
		appointments: appointments,
		index:        index,
	}
}

// Handler returns the chi mux with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/healthz"))

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/ws", s.handleChatWS)

	r.Get("/api/appointments", s.handleAppointmentList)
	r.Get("/api/appointments/{id}", s.handleAppointmentGet)
	r.Patch("/api/appointments/{id}", s.handleAppointmentPatch)
	r.Put("/api/appointments/{id}", s.handleAppointmentPut)

	r.Post("/api/documents", s.handleDocumentAdd)

	return r
}

// sessionLocks serializes turns per session so concurrent requests for the
// same conversation cannot interleave loads and saves.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sessionLocks) acquire(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	return lock
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
