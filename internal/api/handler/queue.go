package handler

import (
	"net/http"

	"github.com/queue-broker-service/internal/api/dto"
	"github.com/queue-broker-service/internal/api/middleware"
	"github.com/queue-broker-service/internal/api/response"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage"
)

// QueueHandler implements the queue controller's HTTP surface. Purge
// delegates to MessageService since purging deletes messages, not the
// queue itself.
type QueueHandler struct {
	service  *service.QueueService
	messages *service.MessageService
}

func NewQueueHandler(svc *service.QueueService, messages *service.MessageService) *QueueHandler {
	return &QueueHandler{service: svc, messages: messages}
}

// Create handles PUT /v1/queues/{queue}.
func (h *QueueHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	created, err := h.service.Create(r.Context(), project, name)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if created {
		w.Header().Set("Location", r.URL.Path)
		response.JSON(w, http.StatusCreated, nil)
		return
	}
	response.NoContent(w)
}

// Exists handles GET /v1/queues/{queue}.
func (h *QueueHandler) Exists(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	exists, err := h.service.Exists(r.Context(), project, name)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !exists {
		response.NotFound(w, "queue does not exist")
		return
	}
	response.NoContent(w)
}

// GetMetadata handles GET /v1/queues/{queue}/metadata.
func (h *QueueHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	metadata, err := h.service.GetMetadata(r.Context(), project, name)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, metadata)
}

// SetMetadata handles PATCH /v1/queues/{queue}/metadata.
func (h *QueueHandler) SetMetadata(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	req, err := dto.ParseJSON[dto.SetMetadataRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}

	if err := h.service.SetMetadata(r.Context(), project, name, req.Metadata); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Delete handles DELETE /v1/queues/{queue}.
func (h *QueueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	if err := h.service.Delete(r.Context(), project, name); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Purge handles POST /v1/queues/{queue}/purge, an expansion over
// spec.md's narrow queue API: deletes all messages without deleting the
// queue itself.
func (h *QueueHandler) Purge(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	if err := h.messages.Purge(r.Context(), project, name); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// List handles GET /v1/queues.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	q := dto.ParseListQuery(r)
	detailed := dto.ParseBoolQuery(r, "detailed", false)

	page, err := h.service.List(r.Context(), project, storage.QueueListOptions{
		ListOptions: storage.ListOptions{Marker: q.Marker, Limit: q.Limit},
		Detailed:    detailed,
	})
	if err != nil {
		response.DomainError(w, err)
		return
	}

	items := make([]dto.QueueResponse, len(page.Items))
	for i, queue := range page.Items {
		items[i] = dto.NewQueueResponse(queue, detailed)
	}
	response.OK(w, dto.QueueListResponse{Queues: items, NextMarker: page.NextMarker})
}

// Stats handles GET /v1/queues/{queue}/stats.
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	name, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	stats, err := h.service.Stats(r.Context(), project, name)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, dto.NewQueueStatsResponse(stats))
}
