package dto

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

// MaxMessagesPerPost caps a single post's batch size, matching the
// original Marconi transport's msg_post_spec cap.
const MaxMessagesPerPost = 20

// MessagePostBody is one {ttl, body} entry in a post request.
type MessagePostBody struct {
	TTL  int    `json:"ttl"`
	Body string `json:"body"`
}

// PostMessagesRequest is the body of POST /v1/queues/{q}/messages.
type PostMessagesRequest struct {
	Messages []MessagePostBody `json:"messages"`
}

func (r *PostMessagesRequest) Validate() error {
	if len(r.Messages) == 0 {
		return errors.New("messages must not be empty")
	}
	if len(r.Messages) > MaxMessagesPerPost {
		return errors.New("messages exceeds the maximum batch size")
	}
	for _, m := range r.Messages {
		if m.TTL < 0 {
			return errors.New("ttl must not be negative")
		}
	}
	return nil
}

// ToSpecs decodes each entry's base64 body into a domain.MessageSpec.
// Bodies travel as base64 over JSON since messages are opaque byte
// payloads, not necessarily valid UTF-8 or JSON themselves.
func (r *PostMessagesRequest) ToSpecs() ([]domain.MessageSpec, error) {
	specs := make([]domain.MessageSpec, len(r.Messages))
	for i, m := range r.Messages {
		body, err := base64.StdEncoding.DecodeString(m.Body)
		if err != nil {
			return nil, errors.New("body must be base64-encoded")
		}
		specs[i] = domain.MessageSpec{TTL: m.TTL, Body: body}
	}
	return specs, nil
}

// PostMessagesResponse is the body of a successful post.
type PostMessagesResponse struct {
	IDs []string `json:"ids"`
}

// MessageResponse is a single message on the wire, with the href spec.md
// §6.1 describes for claimed messages.
type MessageResponse struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	TTL     int    `json:"ttl"`
	Age     int    `json:"age"`
	ClaimID string `json:"claim_id,omitempty"`
	Href    string `json:"href,omitempty"`
}

func NewMessageResponse(m domain.Message, now time.Time, queuePath string) MessageResponse {
	resp := MessageResponse{
		ID:   m.ID,
		Body: base64.StdEncoding.EncodeToString(m.Body),
		TTL:  m.TTL,
		Age:  int(now.Sub(m.CreatedAt).Seconds()),
	}
	if m.ClaimID != "" {
		resp.ClaimID = m.ClaimID
		resp.Href = queuePath + "/messages/" + m.ID + "?claim_id=" + m.ClaimID
	}
	return resp
}
