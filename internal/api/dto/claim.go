package dto

import (
	"errors"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

// CreateClaimRequest is the body of POST /v1/queues/{q}/claims.
type CreateClaimRequest struct {
	TTL   int `json:"ttl"`
	Grace int `json:"grace"`
}

func (r *CreateClaimRequest) Validate() error {
	if r.TTL < 0 {
		return errors.New("ttl must not be negative")
	}
	if r.Grace < 0 {
		return errors.New("grace must not be negative")
	}
	return nil
}

// UpdateClaimRequest is the body of PATCH /v1/queues/{q}/claims/{cid}.
type UpdateClaimRequest struct {
	TTL int `json:"ttl"`
}

func (r *UpdateClaimRequest) Validate() error {
	if r.TTL < 0 {
		return errors.New("ttl must not be negative")
	}
	return nil
}

// ClaimResponse is the body of GET /v1/queues/{q}/claims/{cid} and the
// create response, per spec.md §6.1: {id, ttl, age, messages}.
type ClaimResponse struct {
	ID       string            `json:"id"`
	TTL      int               `json:"ttl"`
	Age      int               `json:"age"`
	Messages []MessageResponse `json:"messages"`
}

func NewClaimResponse(c *domain.Claim, msgs []domain.Message, now time.Time, queuePath string) ClaimResponse {
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = NewMessageResponse(m, now, queuePath)
	}
	return ClaimResponse{
		ID:       c.ID,
		TTL:      c.TTL,
		Age:      int(now.Sub(c.CreatedAt).Seconds()),
		Messages: out,
	}
}
