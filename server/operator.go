package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tbxark/apptagent/docqa"
	"github.com/tbxark/apptagent/patch"
	"github.com/tbxark/apptagent/sink"
)

func (s *Server) handleAppointmentList(w http.ResponseWriter, r *http.Request) {
	var (
		appts []*sink.Appointment
		err   error
	)
	if query := strings.TrimSpace(r.URL.Query().Get("q")); query != "" {
		appts, err = s.appointments.Search(r.Context(), query)
	} else {
		appts, err = s.appointments.List(r.Context())
	}
	if err != nil {
		slog.Error("appointment list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing appointments failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (s *Server) handleAppointmentGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := s.appointments.Get(r.Context(), id)
	if err != nil {
		slog.Error("appointment get failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading appointment failed")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// handleAppointmentPatch applies RFC 6902 operations, limited to the
// user-editable fields, to a stored appointment.
func (s *Server) handleAppointmentPatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var ops []patch.Operation
	if err := readJSON(r, &ops); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(ops) == 0 {
		writeError(w, http.StatusBadRequest, "no operations given")
		return
	}

	s.amend(w, r, id, ops)
}

type appointmentUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Date  string `json:"date"`
}

// handleAppointmentPut replaces the user-editable fields wholesale. The body
// must carry all four; the stored record is patched with the difference.
func (s *Server) handleAppointmentPut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var want appointmentUpdate
	if err := readJSON(r, &want); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := s.appointments.Get(r.Context(), id)
	if err != nil {
		slog.Error("appointment get failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading appointment failed")
		return
	}
	if current == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	have := appointmentUpdate{
		Name:  current.Name,
		Email: current.Email,
		Phone: current.Phone,
		Date:  current.Date,
	}
	ops, err := patch.Diff(have, want)
	if err != nil {
		slog.Error("diffing appointment failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "diffing appointment failed")
		return
	}
	if len(ops) == 0 {
		writeJSON(w, http.StatusOK, current)
		return
	}

	s.amend(w, r, id, ops)
}

func (s *Server) amend(w http.ResponseWriter, r *http.Request, id string, ops []patch.Operation) {
	appt, err := s.appointments.Amend(r.Context(), id, ops)
	if err != nil {
		if errors.Is(err, sink.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type documentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// handleDocumentAdd ingests one document into the retrieval index.
func (s *Server) handleDocumentAdd(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, "document ingestion is disabled")
		return
	}

	var req documentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "name and content are required")
		return
	}

	if err := s.index.Add(r.Context(), docqa.Document{Name: req.Name, Content: req.Content}); err != nil {
		slog.Error("document ingestion failed", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "indexing document failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name, "chunks": s.index.Len()})
}
