package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deathnote/deathnote/internal/api/middleware"
	"github.com/deathnote/deathnote/internal/api/response"
	"github.com/deathnote/deathnote/internal/api/validation"
	"github.com/deathnote/deathnote/internal/victim"
)

// createVictimRequest is the request body for POST /victims.
type createVictimRequest struct {
	Name      string   `json:"name"`
	LastName  string   `json:"lastName"`
	DeathType string   `json:"deathType"`
	Images    []string `json:"images"`
}

// updateDeathTypeRequest is the request body for PATCH /victims/deathtype/{id}.
type updateDeathTypeRequest struct {
	DeathType string `json:"deathType"`
}

// victimResponse is the API representation of a victim record.
type victimResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	LastName  string   `json:"lastName"`
	DeathType string   `json:"deathType"`
	Details   *string  `json:"details"`
	IsAlive   bool     `json:"isAlive"`
	CreatedAt string   `json:"createdAt"`
	EditedAt  *string  `json:"editedAt"`
	Images    []string `json:"images"`
}

const timestampLayout = "2006-01-02T15:04:05Z"

// toVictimResponse converts a victim model to its API representation.
func toVictimResponse(v *victim.Victim) victimResponse {
	resp := victimResponse{
		ID:        v.ID.String(),
		Name:      v.Name,
		LastName:  v.LastName,
		DeathType: v.DeathType,
		Details:   v.Details,
		IsAlive:   v.IsAlive,
		CreatedAt: v.CreatedAt.UTC().Format(timestampLayout),
		Images:    v.Images,
	}
	if v.EditedAt != nil {
		edited := v.EditedAt.UTC().Format(timestampLayout)
		resp.EditedAt = &edited
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	return resp
}

// VictimHandler handles the victim lifecycle endpoints.
type VictimHandler struct {
	service *victim.Service
}

// NewVictimHandler creates a new VictimHandler.
func NewVictimHandler(service *victim.Service) *VictimHandler {
	return &VictimHandler{service: service}
}

// Create handles POST /victims.
func (h *VictimHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req createVictimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateRequest(validation.CreateVictimRequest{
		Name:      req.Name,
		LastName:  req.LastName,
		DeathType: req.DeathType,
		Images:    req.Images,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	v, err := h.service.Create(r.Context(), victim.CreateInput{
		Name:      req.Name,
		LastName:  req.LastName,
		DeathType: req.DeathType,
		Images:    req.Images,
	})
	if err != nil {
		slog.Error("failed to create victim", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create victim", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toVictimResponse(v), requestID)
}

// List handles GET /victims.
func (h *VictimHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	filter := victim.ListFilter{Limit: 20, Offset: 0}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "limit must be a positive integer", requestID)
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "offset must be a non-negative integer", requestID)
			return
		}
		filter.Offset = offset
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list victims", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list victims", requestID)
		return
	}

	items := make([]victimResponse, 0, len(result.Victims))
	for i := range result.Victims {
		items = append(items, toVictimResponse(&result.Victims[i]))
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Limit, result.Offset, requestID)
}

// Find handles GET /victims/{term}. The term is a UUID or a name.
func (h *VictimHandler) Find(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	term := chi.URLParam(r, "term")
	v, err := h.service.Find(r.Context(), term)
	if err != nil {
		if errors.Is(err, victim.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Victim with %q not found", term), requestID)
			return
		}
		slog.Error("failed to find victim", "error", err, "term", term)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to find victim", requestID)
		return
	}

	response.Success(w, http.StatusOK, toVictimResponse(v), requestID)
}

// UpdateDeathType handles PATCH /victims/deathtype/{id}.
func (h *VictimHandler) UpdateDeathType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req updateDeathTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateDeathTypeRequest(validation.DeathTypeRequest{DeathType: req.DeathType})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	v, err := h.service.UpdateDeathType(r.Context(), id, req.DeathType)
	if err != nil {
		h.writeUpdateError(w, err, id, requestID, "death type")
		return
	}

	response.Success(w, http.StatusOK, toVictimResponse(v), requestID)
}

// UpdateDetails handles PATCH /victims/deathdetails/{id}. The body may carry
// only the details key, and it must be a string.
func (h *VictimHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	for key := range body {
		if key != "details" {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Only the details property may be sent", requestID)
			return
		}
	}

	var details string
	if raw, ok := body["details"]; ok {
		if err := json.Unmarshal(raw, &details); err != nil {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "details must be a string", requestID)
			return
		}
	}

	fieldErrors := validation.ValidateDetailsRequest(validation.DetailsRequest{Details: details})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	v, err := h.service.UpdateDetails(r.Context(), id, details)
	if err != nil {
		h.writeUpdateError(w, err, id, requestID, "details")
		return
	}

	response.Success(w, http.StatusOK, toVictimResponse(v), requestID)
}

// Delete handles DELETE /victims/{id}.
func (h *VictimHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, victim.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Victim not found", requestID)
			return
		}
		slog.Error("failed to delete victim", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete victim", requestID)
		return
	}

	response.NoContent(w)
}

// DeleteAll handles DELETE /victims.
func (h *VictimHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		slog.Error("failed to delete all victims", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete victims", requestID)
		return
	}

	response.Success(w, http.StatusOK, map[string]int64{"deleted": count}, requestID)
}

// parseID extracts and parses the id route parameter, writing a 400 on failure.
func parseID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}

// writeUpdateError maps a failed patch to the right status code.
func (h *VictimHandler) writeUpdateError(w http.ResponseWriter, err error, id uuid.UUID, requestID, what string) {
	switch {
	case errors.Is(err, victim.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Victim with id %s not found", id), requestID)
	case errors.Is(err, victim.ErrConflict):
		response.Err(w, http.StatusConflict, "CONFLICT", "Victim was modified concurrently, retry the update", requestID)
	default:
		slog.Error("failed to update victim "+what, "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update victim", requestID)
	}
}
