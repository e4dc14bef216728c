package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pathforge/pathforge-api/internal/api/shared"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles GET /health requests
type HealthHandler struct {
	db            Pinger
	llmConfigured bool
}

// NewHealthHandler creates a new HealthHandler. llmConfigured reports whether
// an LLM API key was supplied; the health check never spends a model call.
func NewHealthHandler(db Pinger, llmConfigured bool) *HealthHandler {
	return &HealthHandler{
		db:            db,
		llmConfigured: llmConfigured,
	}
}

// Health reports overall service health. Degraded dependencies turn the
// status to 503 so load balancers stop routing to this instance.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "ok",
		Database: "ok",
		LLM:      "ok",
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db == nil || h.db.PingContext(ctx) != nil {
		response.Database = "unavailable"
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	if !h.llmConfigured {
		response.LLM = "unconfigured"
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	shared.RespondWithJSON(w, r, status, response)
}
