package handlers

import (
	"net/http"

	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/pkg/logger"
)

// StatsHandler serves engine counters
type StatsHandler struct {
	engine *services.Engine
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(engine *services.Engine, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		engine: engine,
		logger: log.WithComponent("stats"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Stats())
}
