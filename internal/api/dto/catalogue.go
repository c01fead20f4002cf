package dto

import (
	"github.com/queue-broker-service/internal/domain"
)

// UpsertCatalogueRequest is the body of PUT /v1/catalogue/{project}/{queue}.
type UpsertCatalogueRequest struct {
	Location string         `json:"location"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (r *UpsertCatalogueRequest) Validate() error {
	if err := ValidateRequired(r.Location, "location"); err != nil {
		return err
	}
	return nil
}

// MoveCatalogueRequest is the body of POST .../move.
type MoveCatalogueRequest struct {
	NewLocation string `json:"new_location"`
}

func (r *MoveCatalogueRequest) Validate() error {
	return ValidateRequired(r.NewLocation, "new_location")
}

// MetadataRequest is a bare {metadata} body, shared by catalogue and
// queue metadata updates.
type MetadataRequest struct {
	Metadata map[string]any `json:"metadata"`
}

// CatalogueEntryResponse mirrors domain.CatalogueEntry on the wire.
type CatalogueEntryResponse struct {
	Queue    string         `json:"queue"`
	Location string         `json:"location,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewCatalogueEntryResponse(e domain.CatalogueEntry, includeLocation, includeMetadata bool) CatalogueEntryResponse {
	resp := CatalogueEntryResponse{Queue: e.Queue}
	if includeLocation {
		resp.Location = e.Location
	}
	if includeMetadata {
		resp.Metadata = e.Metadata
	}
	return resp
}
