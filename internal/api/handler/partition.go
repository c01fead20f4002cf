package handler

import (
	"net/http"

	"github.com/queue-broker-service/internal/api/dto"
	"github.com/queue-broker-service/internal/api/response"
	"github.com/queue-broker-service/internal/service"
)

// PartitionHandler implements the proxy's partition controller HTTP
// surface (spec.md §4.4, SPEC_FULL.md §4.6).
type PartitionHandler struct {
	service *service.PartitionService
}

func NewPartitionHandler(svc *service.PartitionService) *PartitionHandler {
	return &PartitionHandler{service: svc}
}

// Create handles POST /v1/partitions.
func (h *PartitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := dto.ParseJSON[dto.CreatePartitionRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	if err := h.service.Create(r.Context(), req.Name, req.Weight, req.Nodes); err != nil {
		response.DomainError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/partitions/"+req.Name)
	response.Created(w, dto.PartitionResponse{Name: req.Name, Weight: req.Weight, Nodes: req.Nodes})
}

// Get handles GET /v1/partitions/{name}.
func (h *PartitionHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, err := dto.URLParam(r, "name")
	if err != nil {
		response.NotFound(w, "partition does not exist")
		return
	}

	partition, err := h.service.Get(r.Context(), name)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, dto.NewPartitionResponse(*partition))
}

// List handles GET /v1/partitions.
func (h *PartitionHandler) List(w http.ResponseWriter, r *http.Request) {
	partitions, err := h.service.List(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}

	out := make([]dto.PartitionResponse, len(partitions))
	for i, p := range partitions {
		out[i] = dto.NewPartitionResponse(p)
	}
	response.OK(w, out)
}

// Delete handles DELETE /v1/partitions/{name}.
func (h *PartitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, err := dto.URLParam(r, "name")
	if err != nil {
		response.NoContent(w)
		return
	}

	if err := h.service.Delete(r.Context(), name); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Select handles GET /v1/partitions/select, returning the node the proxy
// should route a newly-placed queue to.
func (h *PartitionHandler) Select(w http.ResponseWriter, r *http.Request) {
	node, err := h.service.Select(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, dto.SelectResponse{Node: node})
}

// Stats handles GET /v1/partitions/stats, reporting each partition's
// share of the weighted selection pool, rounded to six decimal places.
func (h *PartitionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	shares, err := h.service.Stats(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}

	out := make([]dto.PartitionShareResponse, len(shares))
	for i, s := range shares {
		out[i] = dto.NewPartitionShareResponse(s)
	}
	response.OK(w, out)
}
