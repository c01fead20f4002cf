package handler

import (
	"net/http"
	"strconv"

	"github.com/queue-broker-service/internal/api/dto"
	"github.com/queue-broker-service/internal/api/middleware"
	"github.com/queue-broker-service/internal/api/response"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage"
)

const defaultClaimLimit = 10

// ClaimHandler implements the claim controller's HTTP surface.
type ClaimHandler struct {
	service *service.ClaimService
	clock   storage.Clock
}

func NewClaimHandler(svc *service.ClaimService, clock storage.Clock) *ClaimHandler {
	return &ClaimHandler{service: svc, clock: clock}
}

// Create handles POST /v1/queues/{queue}/claims?limit=N.
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	req, err := dto.ParseJSON[dto.CreateClaimRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	limit := defaultClaimLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	claim, msgs, err := h.service.Create(r.Context(), project, queue, req.TTL, req.Grace, limit)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if len(msgs) == 0 {
		response.NoContent(w)
		return
	}

	w.Header().Set("Location", queuePath(project, queue)+"/claims/"+claim.ID)
	response.Created(w, dto.NewClaimResponse(claim, msgs, h.clock.Now(), queuePath(project, queue)))
}

// Get handles GET /v1/queues/{queue}/claims/{id}.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}
	id, err := dto.URLParam(r, "id")
	if err != nil {
		response.NotFound(w, "claim does not exist")
		return
	}

	claim, msgs, err := h.service.Get(r.Context(), project, queue, id)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, dto.NewClaimResponse(claim, msgs, h.clock.Now(), queuePath(project, queue)))
}

// Update handles PATCH /v1/queues/{queue}/claims/{id}.
func (h *ClaimHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}
	id, err := dto.URLParam(r, "id")
	if err != nil {
		response.NotFound(w, "claim does not exist")
		return
	}

	req, err := dto.ParseJSON[dto.UpdateClaimRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	if err := h.service.Update(r.Context(), project, queue, id, req.TTL); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Delete handles DELETE /v1/queues/{queue}/claims/{id}. Always 204, per
// spec.md §6.1 — malformed/absent ids are silent no-ops.
func (h *ClaimHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.NoContent(w)
		return
	}
	id, err := dto.URLParam(r, "id")
	if err != nil {
		response.NoContent(w)
		return
	}

	_ = h.service.Delete(r.Context(), project, queue, id)
	response.NoContent(w)
}
