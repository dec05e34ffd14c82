package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymjs/muscle-selector/internal/dispatcher"
	"github.com/gymjs/muscle-selector/internal/parser"
	"github.com/gymjs/muscle-selector/internal/persistence"
	"github.com/gymjs/muscle-selector/internal/profile"
	"github.com/gymjs/muscle-selector/internal/session"
	"github.com/gymjs/muscle-selector/pkg/protocol"
)

var errProfilesDisabled = errors.New("profile storage is not configured")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.svc.Sessions().Len(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.svc.Sessions().IDs()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.svc.CreateSession()
	writeJSON(w, http.StatusCreated, sess.State())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CloseSession(chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent applies one envelope and answers with the resulting state.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var env protocol.Envelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&env); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", parser.ErrInvalidPayload, err))
		return
	}
	if env.Type == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing type", parser.ErrInvalidPayload))
		return
	}

	state, err := s.dispatcher.Dispatch(dispatcher.Event{
		Command:   env.Type,
		SessionID: chi.URLParam(r, "sessionID"),
		Payload:   env.Payload,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.Reply{Type: protocol.ReplyState, For: env.Type, State: state})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	layout, restored := s.svc.Gateway().Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      s.svc.Gateway().Key(),
		"restored": restored,
		"layout":   layout,
	})
}

// handleImportLayout replaces the stored layout with the uploaded "file"
// form field after validating it.
func (s *Server) handleImportLayout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", parser.ErrInvalidPayload, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", parser.ErrInvalidPayload, err))
		return
	}
	layout, err := s.svc.Gateway().Import(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Imported layout", "file", header.Filename, "labels", layout.Len())
	writeJSON(w, http.StatusOK, map[string]any{
		"key":    s.svc.Gateway().Key(),
		"labels": layout.Len(),
	})
}

func (s *Server) handleMuscles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"muscles": s.svc.Muscles()})
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	muscle := chi.URLParam(r, "muscle")
	writeJSON(w, http.StatusOK, map[string]any{
		"muscle":    muscle,
		"exercises": s.svc.Exercises(muscle),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profiles := s.svc.Profiles()
	if profiles == nil {
		s.writeError(w, r, errProfilesDisabled)
		return
	}
	userID := chi.URLParam(r, "userID")
	p, ok, err := profiles.Load(userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("no profile for %q", userID)})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	profiles := s.svc.Profiles()
	if profiles == nil {
		s.writeError(w, r, errProfilesDisabled)
		return
	}
	var p profile.Profile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&p); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", parser.ErrInvalidPayload, err))
		return
	}
	if err := profiles.Save(chi.URLParam(r, "userID"), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parser.ErrInvalidPayload), errors.Is(err, dispatcher.ErrUnknownCommand),
		errors.Is(err, persistence.ErrMalformed), errors.Is(err, persistence.ErrUnsupportedVersion),
		errors.Is(err, persistence.ErrEmpty):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dispatcher.ErrClosed), errors.Is(err, errProfilesDisabled), errors.Is(err, errShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.DebugContext(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
