package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/pkg/logger"
)

const maxRequestBody = 1 << 20 // 1MB

// HoneypotHandler handles the conversational honeypot endpoints
type HoneypotHandler struct {
	engine  *services.Engine
	store   *session.Store
	archive *database.ReportArchive
	logger  *logger.Logger
}

// NewHoneypotHandler creates a new HoneypotHandler. archive may be nil.
func NewHoneypotHandler(engine *services.Engine, store *session.Store, archive *database.ReportArchive, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		engine:  engine,
		store:   store,
		archive: archive,
		logger:  log.WithComponent("honeypot-handler"),
	}
}

// MessageResponse is the reply envelope for inbound messages
type MessageResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// Message handles POST /api/v1/honeypot/message
func (h *HoneypotHandler) Message(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	sessionID, msg, history, err := normalizeMessageRequest(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info().
		Str("session_id", sessionID).
		Int("history", len(history)).
		Msg("processing inbound message")

	reply, err := h.engine.Process(r.Context(), sessionID, msg, history)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to process message")
		respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Status: "success", Reply: reply})
}

// GetSession handles GET /api/v1/honeypot/sessions/{id}
func (h *HoneypotHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.store.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/v1/honeypot/sessions/{id}
func (h *HoneypotHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.store.Clear(id) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "cleared",
		"sessionId": id,
	})
}

// TriggerReport handles POST /api/v1/honeypot/sessions/{id}/report.
// Forces the final report early, honoring the one-way reported flag.
func (h *HoneypotHandler) TriggerReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.engine.TriggerReport(id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, session.ErrAlreadyReported):
			respondError(w, http.StatusConflict, "report already sent")
		default:
			respondError(w, http.StatusInternalServerError, "failed to trigger report")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "report_triggered",
		"sessionId":    id,
		"messageCount": sess.MessageCount,
	})
}

// ListReports handles GET /api/v1/honeypot/sessions/{id}/reports,
// serving the archived delivery outcomes for a session.
func (h *HoneypotHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusNotImplemented, "report archive not configured")
		return
	}

	id := chi.URLParam(r, "id")
	reports, err := h.archive.BySession(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to query report archive")
		respondError(w, http.StatusInternalServerError, "failed to query report archive")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"reports":   reports,
	})
}
