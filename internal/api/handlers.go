package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/util"
)

// turnHandler handles POST /v1/turn: one user message through the
// workflow, returning the reply and the session's new stage.
func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.turnHandler: processing turn request", "method", r.Method, "path", r.URL.Path)

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.turnHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	// A first message may arrive without a session; mint one so the
	// client can carry it forward.
	if req.SessionID == "" {
		req.SessionID = util.GenerateSessionID()
		slog.Debug("Server.turnHandler: generated session ID", "sessionID", req.SessionID)
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.turnHandler: validation failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	lock := s.acquireSessionLock(req.SessionID)
	defer s.releaseSessionLock(req.SessionID, lock)

	resp, err := s.workflow.ProcessTurn(r.Context(), req)
	if err != nil {
		slog.Error("Server.turnHandler: turn processing failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	slog.Info("Server.turnHandler: turn processed",
		"sessionID", req.SessionID, "stage", resp.Stage, "complete", resp.Complete)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

// getSessionHandler handles GET /v1/sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.getSessionHandler: fetching session", "sessionID", sessionID)

	snap, err := s.workflow.Snapshot(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("Server.getSessionHandler: lookup failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// deleteSessionHandler handles DELETE /v1/sessions/{id}.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.deleteSessionHandler: deleting session", "sessionID", sessionID)

	// Deletion waits its turn behind any in-flight turn for the
	// session rather than yanking the lock out from under it.
	lock := s.acquireSessionLock(sessionID)
	defer s.releaseSessionLock(sessionID, lock)

	if err := s.workflow.EndSession(r.Context(), sessionID); err != nil {
		slog.Error("Server.deleteSessionHandler: delete failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// listTherapistsHandler handles GET /v1/therapists.
func (s *Server) listTherapistsHandler(w http.ResponseWriter, r *http.Request) {
	therapists, err := s.st.GetAvailableTherapists()
	if err != nil {
		slog.Error("Server.listTherapistsHandler: roster lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load therapists"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(therapists))
}

// addTherapistHandler handles POST /v1/therapists. New volunteers start
// in pending status until their license is verified; pending therapists
// never receive matches.
func (s *Server) addTherapistHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var input models.TherapistInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		slog.Warn("Server.addTherapistHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := input.Validate(); err != nil {
		slog.Warn("Server.addTherapistHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	maxPatients := input.MaxPatients
	if maxPatients == 0 {
		maxPatients = 10
	}
	now := time.Now().UTC()
	therapist := models.Therapist{
		ID:              uuid.NewString(),
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Specializations: input.Specializations,
		YearsExperience: input.YearsExperience,
		IsVolunteer:     true,
		Status:          models.TherapistStatusPending,
		MaxPatients:     maxPatients,
		Bio:             input.Bio,
		JoinedAt:        now,
		LastActive:      now,
	}
	added, err := s.st.AddTherapist(therapist)
	if err != nil {
		slog.Error("Server.addTherapistHandler: save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to add therapist"))
		return
	}
	if !added {
		slog.Warn("Server.addTherapistHandler: duplicate therapist ID", "therapistID", therapist.ID)
		writeJSONResponse(w, http.StatusConflict, models.Error("Therapist already enrolled"))
		return
	}

	slog.Info("Server.addTherapistHandler: therapist enrolled", "therapistID", therapist.ID)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Therapist enrolled", therapist))
}

// statsHandler handles GET /v1/stats.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.st.TherapistStats()
	if err != nil {
		slog.Error("Server.statsHandler: stats lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to compute stats"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
