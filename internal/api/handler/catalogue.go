package handler

import (
	"net/http"

	"github.com/queue-broker-service/internal/api/dto"
	"github.com/queue-broker-service/internal/api/response"
	"github.com/queue-broker-service/internal/service"
)

// CatalogueHandler implements the proxy's catalogue controller HTTP
// surface (SPEC_FULL.md §4.6).
type CatalogueHandler struct {
	service *service.CatalogueService
}

func NewCatalogueHandler(svc *service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{service: svc}
}

// List handles GET /v1/catalogue/{project}.
func (h *CatalogueHandler) List(w http.ResponseWriter, r *http.Request) {
	project, err := dto.URLParam(r, "project")
	if err != nil {
		response.ValidationError(w, "project is required")
		return
	}
	includeMetadata := dto.ParseBoolQuery(r, "include_metadata", false)
	includeLocation := dto.ParseBoolQuery(r, "include_location", false)

	entries, err := h.service.List(r.Context(), project, includeMetadata, includeLocation)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	out := make([]dto.CatalogueEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.NewCatalogueEntryResponse(e, includeLocation, includeMetadata)
	}
	response.OK(w, out)
}

// Get handles GET /v1/catalogue/{project}/{queue}.
func (h *CatalogueHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, queue, err := h.projectQueue(r)
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	entry, err := h.service.Get(r.Context(), project, queue)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, dto.NewCatalogueEntryResponse(*entry, true, true))
}

// Upsert handles PUT /v1/catalogue/{project}/{queue}. Duplicate entries
// are rejected with 409 (Open Question 2, decided in SPEC_FULL.md §9).
func (h *CatalogueHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	project, queue, err := h.projectQueue(r)
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	req, err := dto.ParseJSON[dto.UpsertCatalogueRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	if err := h.service.Insert(r.Context(), project, queue, req.Location, req.Metadata); err != nil {
		response.DomainError(w, err)
		return
	}
	w.Header().Set("Location", r.URL.Path)
	response.JSON(w, http.StatusCreated, nil)
}

// UpdateMetadata handles PATCH /v1/catalogue/{project}/{queue}.
func (h *CatalogueHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	project, queue, err := h.projectQueue(r)
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	req, err := dto.ParseJSON[dto.MetadataRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}

	if err := h.service.UpdateMetadata(r.Context(), project, queue, req.Metadata); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Move handles POST /v1/catalogue/{project}/{queue}/move.
func (h *CatalogueHandler) Move(w http.ResponseWriter, r *http.Request) {
	project, queue, err := h.projectQueue(r)
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	req, err := dto.ParseJSON[dto.MoveCatalogueRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	if err := h.service.Move(r.Context(), project, queue, req.NewLocation); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Location handles GET /v1/catalogue/{project}/{queue}/location.
func (h *CatalogueHandler) Location(w http.ResponseWriter, r *http.Request) {
	project, queue, err := h.projectQueue(r)
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	location, err := h.service.Location(r.Context(), project, queue)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, map[string]string{"location": location})
}

// Delete handles DELETE /v1/catalogue/{project}/{queue}.
func (h *CatalogueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, queue, err := h.projectQueue(r)
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), project, queue); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *CatalogueHandler) projectQueue(r *http.Request) (string, string, error) {
	project, err := dto.URLParam(r, "project")
	if err != nil {
		return "", "", err
	}
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		return "", "", err
	}
	return project, queue, nil
}
