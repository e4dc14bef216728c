package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pathforge/pathforge-api/internal/api/shared"
	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/service"
)

// PathHandler handles learning path HTTP requests
type PathHandler struct {
	pathService service.PathService
	validator   *validator.Validate
}

// NewPathHandler creates a new PathHandler
func NewPathHandler(pathService service.PathService) *PathHandler {
	return &PathHandler{
		pathService: pathService,
		validator:   validator.New(),
	}
}

// GeneratePath handles POST /api/paths/generate requests. The call is
// synchronous: it blocks through the full workflow and responds with the
// persisted path plus run metadata.
func (h *PathHandler) GeneratePath(w http.ResponseWriter, r *http.Request) {
	var req GeneratePathRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	genReq, err := domain.NewGenerationRequest(
		req.Topic,
		req.Context,
		domain.ExperienceLevel(req.ExperienceLevel),
	)
	if err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithError(w, r, status, message)
		return
	}

	outcome, err := h.pathService.Generate(r.Context(), *genReq)
	if err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, outcomeToResponse(outcome))
}

// GetPath handles GET /api/paths/{id} requests
func (h *PathHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid path ID")
		return
	}

	path, err := h.pathService.GetPath(r.Context(), id)
	if err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pathToResponse(path))
}

// GetPathBySlug handles GET /api/paths/slug/{slug} requests
func (h *PathHandler) GetPathBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing path slug")
		return
	}

	path, err := h.pathService.GetPathBySlug(r.Context(), slug)
	if err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pathToResponse(path))
}

// ListPaths handles GET /api/paths requests with optional language, area,
// limit, and offset query parameters.
func (h *PathHandler) ListPaths(w http.ResponseWriter, r *http.Request) {
	filters := domain.PathFilters{
		Language: r.URL.Query().Get("language"),
		Area:     r.URL.Query().Get("area"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filters.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		filters.Offset = offset
	}

	paths, err := h.pathService.ListPaths(r.Context(), filters)
	if err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	response := PathListResponse{
		Paths:  make([]PathResponse, 0, len(paths)),
		Count:  len(paths),
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	for _, path := range paths {
		response.Paths = append(response.Paths, pathToResponse(path))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// DeletePath handles DELETE /api/paths/{id} requests
func (h *PathHandler) DeletePath(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid path ID")
		return
	}

	if err := h.pathService.DeletePath(r.Context(), id); err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetJob handles GET /api/jobs/{id} requests
func (h *PathHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.pathService.GetJob(r.Context(), id)
	if err != nil {
		status, message := MapErrorToStatus(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, job)
}
