package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// ==================== Validation Errors ====================

var (
	ErrRequiredField = errors.New("required field is missing")
)

// ==================== Pagination ====================

// DefaultListLimit and MaxListLimit bound the marker-based pagination the
// queue and message list endpoints share.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// ListQuery carries the marker/limit pair every paginated list endpoint
// accepts, decoded straight from the query string into storage.ListOptions.
type ListQuery struct {
	Marker string
	Limit  int
}

// ParseListQuery reads marker and limit from the request's query string.
// A missing or malformed limit falls back to DefaultListLimit rather than
// rejecting the request; a marker is always treated as an opaque string,
// never validated here: a message marker that fails to decode yields an
// empty page at the storage layer instead of a 400.
func ParseListQuery(r *http.Request) ListQuery {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return ListQuery{Marker: q.Get("marker"), Limit: limit}
}

// ParseBoolQuery reads a boolean query flag (echo, include_claimed,
// detailed, ...), defaulting to def on absence or malformed input.
func ParseBoolQuery(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ==================== ID Extraction ====================

// URLParam extracts a path parameter as a plain string. Queue, message,
// claim and project identifiers are opaque strings in this domain, not
// UUIDs, so there is nothing to parse beyond presence.
func URLParam(r *http.Request, param string) (string, error) {
	v := chi.URLParam(r, param)
	if v == "" {
		return "", ErrRequiredField
	}
	return v, nil
}

// ==================== JSON Parsing ====================

func ParseJSON[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ==================== String Validation ====================

func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}

func ValidateMaxLength(value string, max int, fieldName string) error {
	if len(value) > max {
		return errors.New(fieldName + " exceeds maximum length")
	}
	return nil
}

// formatTime renders timestamps the way every DTO reports them:
// ISO-8601 UTC, per spec.md §4.1's stats contract.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
