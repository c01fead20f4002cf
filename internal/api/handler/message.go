package handler

import (
	"net/http"
	"strings"

	"github.com/queue-broker-service/internal/api/dto"
	"github.com/queue-broker-service/internal/api/middleware"
	"github.com/queue-broker-service/internal/api/response"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage"
)

// MessageHandler implements the message controller's HTTP surface.
type MessageHandler struct {
	service *service.MessageService
	clock   storage.Clock
}

func NewMessageHandler(svc *service.MessageService, clock storage.Clock) *MessageHandler {
	return &MessageHandler{service: svc, clock: clock}
}

// Post handles POST /v1/queues/{queue}/messages.
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	req, err := dto.ParseJSON[dto.PostMessagesRequest](r)
	if err != nil {
		response.ValidationError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(w, err.Error())
		return
	}
	specs, err := req.ToSpecs()
	if err != nil {
		response.ValidationError(w, err.Error())
		return
	}

	clientUUID := r.Header.Get("Client-ID")
	ids, err := h.service.Post(r.Context(), project, queue, specs, clientUUID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, dto.PostMessagesResponse{IDs: ids})
}

// Get handles GET /v1/queues/{queue}/messages/{id}.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}
	id, err := dto.URLParam(r, "id")
	if err != nil {
		response.NotFound(w, "message does not exist")
		return
	}

	msg, err := h.service.Get(r.Context(), project, queue, id)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, dto.NewMessageResponse(*msg, h.clock.Now(), queuePath(project, queue)))
}

// BulkGet handles GET /v1/queues/{queue}/messages?ids=a,b,c.
func (h *MessageHandler) BulkGet(w http.ResponseWriter, r *http.Request) {
	if ids := r.URL.Query().Get("ids"); ids != "" {
		h.bulkGet(w, r, strings.Split(ids, ","))
		return
	}
	h.List(w, r)
}

func (h *MessageHandler) bulkGet(w http.ResponseWriter, r *http.Request, ids []string) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	msgs, err := h.service.BulkGet(r.Context(), project, queue, ids)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	now := h.clock.Now()
	out := make([]dto.MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = dto.NewMessageResponse(m, now, queuePath(project, queue))
	}
	response.OK(w, out)
}

// Delete handles DELETE /v1/queues/{queue}/messages/{id}?claim_id=....
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}
	id, err := dto.URLParam(r, "id")
	if err != nil {
		// A malformed/absent id is a silent no-op per the absent-vs-
		// malformed distinction: delete is idempotent either way.
		response.NoContent(w)
		return
	}

	claimID := r.URL.Query().Get("claim_id")
	if err := h.service.Delete(r.Context(), project, queue, id, claimID); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// BulkDelete handles DELETE /v1/queues/{queue}/messages?ids=a,b,c.
func (h *MessageHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	ids := r.URL.Query().Get("ids")
	if ids == "" {
		response.ValidationError(w, "ids query parameter is required")
		return
	}

	if err := h.service.BulkDelete(r.Context(), project, queue, strings.Split(ids, ",")); err != nil {
		response.DomainError(w, err)
		return
	}
	response.NoContent(w)
}

// List handles GET /v1/queues/{queue}/messages.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	project, _ := middleware.GetProject(r.Context())
	queue, err := dto.URLParam(r, "queue")
	if err != nil {
		response.ValidationError(w, "queue name is required")
		return
	}

	q := dto.ParseListQuery(r)
	page, err := h.service.List(r.Context(), project, queue, storage.MessageListOptions{
		ListOptions:    storage.ListOptions{Marker: q.Marker, Limit: q.Limit},
		Echo:           dto.ParseBoolQuery(r, "echo", false),
		IncludeClaimed: dto.ParseBoolQuery(r, "include_claimed", false),
		ClientUUID:     r.Header.Get("Client-ID"),
	})
	if err != nil {
		response.DomainError(w, err)
		return
	}

	now := h.clock.Now()
	items := make([]dto.MessageResponse, len(page.Items))
	for i, m := range page.Items {
		items[i] = dto.NewMessageResponse(m, now, queuePath(project, queue))
	}
	response.JSONWithMeta(w, http.StatusOK, items, &response.Meta{NextCursor: page.NextMarker, HasMore: page.NextMarker != ""})
}

func queuePath(project, queue string) string {
	return "/v1/queues/" + queue
}
