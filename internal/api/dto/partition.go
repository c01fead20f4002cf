package dto

import (
	"errors"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/service"
)

// CreatePartitionRequest is the body of POST /v1/partitions.
type CreatePartitionRequest struct {
	Name   string   `json:"name"`
	Weight int      `json:"weight"`
	Nodes  []string `json:"nodes"`
}

func (r *CreatePartitionRequest) Validate() error {
	if err := ValidateRequired(r.Name, "name"); err != nil {
		return err
	}
	if r.Weight < 1 {
		return errors.New("weight must be at least 1")
	}
	if len(r.Nodes) == 0 {
		return errors.New("nodes must not be empty")
	}
	return nil
}

// PartitionResponse mirrors domain.Partition on the wire.
type PartitionResponse struct {
	Name   string   `json:"name"`
	Weight int      `json:"weight"`
	Nodes  []string `json:"nodes"`
}

func NewPartitionResponse(p domain.Partition) PartitionResponse {
	return PartitionResponse{Name: p.Name, Weight: p.Weight, Nodes: p.Nodes}
}

// SelectResponse is the body of GET /v1/partitions/select.
type SelectResponse struct {
	Node string `json:"node"`
}

// PartitionShareResponse reports a partition's share of the weighted
// selection pool.
type PartitionShareResponse struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
	Share string `json:"share"`
}

func NewPartitionShareResponse(s service.PartitionShare) PartitionShareResponse {
	return PartitionShareResponse{Name: s.Name, Nodes: s.Nodes, Share: s.Share.String()}
}
