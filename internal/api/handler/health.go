package handler

import (
	"context"
	"net/http"

	"github.com/deathnote/deathnote/internal/api/middleware"
	"github.com/deathnote/deathnote/internal/api/response"
)

// DBPinger verifies database connectivity for health reporting.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type healthData struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database bool   `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	dbUp := true
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbUp = false
	}

	response.Success(w, http.StatusOK, healthData{
		Status:   status,
		Version:  h.version,
		Database: dbUp,
	}, requestID)
}
