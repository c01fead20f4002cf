package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// General errors
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeUnavailable     ErrorCode = "SERVICE_UNAVAILABLE"

	// Domain-specific errors, mirroring the closed taxonomy in domain.Err*.
	ErrCodeQueueDoesNotExist      ErrorCode = "QUEUE_DOES_NOT_EXIST"
	ErrCodeMessageDoesNotExist    ErrorCode = "MESSAGE_DOES_NOT_EXIST"
	ErrCodeClaimDoesNotExist      ErrorCode = "CLAIM_DOES_NOT_EXIST"
	ErrCodeNotPermitted           ErrorCode = "NOT_PERMITTED"
	ErrCodeNoPartitionsRegistered ErrorCode = "NO_PARTITIONS_REGISTERED"
	ErrCodePartitionNotFound      ErrorCode = "PARTITION_NOT_FOUND"
	ErrCodeEntryNotFound          ErrorCode = "ENTRY_NOT_FOUND"
	ErrCodeEntryAlreadyExists     ErrorCode = "ENTRY_ALREADY_EXISTS"
	ErrCodeProjectRequired        ErrorCode = "PROJECT_REQUIRED"
)

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, code ErrorCode, message string, details ...string) {
	resp := ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC(),
	}
	writeJSON(w, status, resp)
}

// BadRequest sends a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string, details ...string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message, details...)
}

// ValidationError sends a 400 error for validation failures
func ValidationError(w http.ResponseWriter, message string, details ...string) {
	Error(w, http.StatusBadRequest, ErrCodeValidation, message, details...)
}

// NotFound sends a 404 Not Found error
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Unauthorized sends a 401 Unauthorized error
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 Forbidden error
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// Conflict sends a 409 Conflict error
func Conflict(w http.ResponseWriter, code ErrorCode, message string) {
	Error(w, http.StatusConflict, code, message)
}

// InternalError sends a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// TooManyRequests sends a 429 Too Many Requests error
func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, ErrCodeTooManyRequests, message)
}

// ServiceUnavailable sends a 503 Service Unavailable error
func ServiceUnavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// DomainError maps the closed domain.Err* taxonomy to the wire status and
// code it owns (validation -> 400, not-found -> 404, NotPermitted -> 403,
// backend unavailable -> 503), so handlers can funnel every storage/service
// error through one place instead of re-deriving status codes per route.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		Error(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, domain.ErrQueueDoesNotExist):
		Error(w, http.StatusNotFound, ErrCodeQueueDoesNotExist, err.Error())
	case errors.Is(err, domain.ErrMessageDoesNotExist):
		Error(w, http.StatusNotFound, ErrCodeMessageDoesNotExist, err.Error())
	case errors.Is(err, domain.ErrClaimDoesNotExist):
		Error(w, http.StatusNotFound, ErrCodeClaimDoesNotExist, err.Error())
	case errors.Is(err, domain.ErrEntryNotFound):
		Error(w, http.StatusNotFound, ErrCodeEntryNotFound, err.Error())
	case errors.Is(err, domain.ErrPartitionNotFound):
		Error(w, http.StatusNotFound, ErrCodePartitionNotFound, err.Error())
	case errors.Is(err, domain.ErrNotPermitted):
		Error(w, http.StatusForbidden, ErrCodeNotPermitted, err.Error())
	case errors.Is(err, domain.ErrEntryAlreadyExists):
		Error(w, http.StatusConflict, ErrCodeEntryAlreadyExists, err.Error())
	case errors.Is(err, domain.ErrNoPartitionsRegistered):
		Error(w, http.StatusServiceUnavailable, ErrCodeNoPartitionsRegistered, err.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	default:
		InternalError(w, err.Error())
	}
}
