package handlers

import (
	"encoding/json"
	"net/http"

	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Honeypot *HoneypotHandler
	Stats    *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Engine  *services.Engine
	Store   *session.Store
	Cache   *cache.RedisCache
	DB      *database.PostgresDB
	Archive *database.ReportArchive
	Logger  *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.DB, deps.Logger),
		Honeypot: NewHoneypotHandler(deps.Engine, deps.Store, deps.Archive, deps.Logger),
		Stats:    NewStatsHandler(deps.Engine, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
