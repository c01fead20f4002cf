package dto

import "github.com/queue-broker-service/internal/domain"

// SetMetadataRequest is the body of PATCH /v1/queues/{q}/metadata.
type SetMetadataRequest struct {
	Metadata map[string]any `json:"metadata"`
}

// QueueResponse is one entry in a queue listing.
type QueueResponse struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewQueueResponse(q domain.Queue, detailed bool) QueueResponse {
	resp := QueueResponse{Name: q.Name}
	if detailed {
		resp.Metadata = q.Metadata
	}
	return resp
}

// QueueListResponse is the body of GET /v1/queues.
type QueueListResponse struct {
	Queues     []QueueResponse `json:"queues"`
	NextMarker string          `json:"next_marker,omitempty"`
}

// MessageStatSummary is {id, created} as spec.md §4.1 requires.
type MessageStatSummary struct {
	ID      string `json:"id"`
	Created string `json:"created"`
}

// QueueStatsResponse is the body of GET /v1/queues/{q}/stats.
type QueueStatsResponse struct {
	Messages struct {
		Free    int                 `json:"free"`
		Claimed int                 `json:"claimed"`
		Total   int                 `json:"total"`
		Oldest  *MessageStatSummary `json:"oldest,omitempty"`
		Newest  *MessageStatSummary `json:"newest,omitempty"`
	} `json:"messages"`
}

func NewQueueStatsResponse(stats domain.MessageStats) QueueStatsResponse {
	var resp QueueStatsResponse
	resp.Messages.Free = stats.Free
	resp.Messages.Claimed = stats.Claimed
	resp.Messages.Total = stats.Total
	if stats.Oldest != nil {
		resp.Messages.Oldest = &MessageStatSummary{ID: stats.Oldest.ID, Created: formatTime(stats.Oldest.Created)}
	}
	if stats.Newest != nil {
		resp.Messages.Newest = &MessageStatSummary{ID: stats.Newest.ID, Created: formatTime(stats.Newest.Created)}
	}
	return resp
}
