package middleware

import (
	"context"
	"net/http"

	"github.com/queue-broker-service/internal/api/response"
	"github.com/queue-broker-service/internal/pkg/logger"
)

const (
	// ProjectIDKey is the context key for the project identifier.
	ProjectIDKey = logger.ProjectIDKey

	// ProjectIDHeader carries the caller's project, an opaque string
	// identifying the tenant (spec's "project" is not a UUID).
	ProjectIDHeader = "X-Project-ID"
)

// ProjectContext middleware extracts the project identifier from the
// request header and stores it in context for downstream handlers and
// logging. A missing header leaves the context untouched; RequireProject
// enforces presence on the routes that need it.
func ProjectContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if project := r.Header.Get(ProjectIDHeader); project != "" {
			ctx = context.WithValue(ctx, ProjectIDKey, project)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireProject middleware ensures a project identifier is present.
func RequireProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetProject(r.Context()); !ok {
			response.Error(w, http.StatusBadRequest, response.ErrCodeProjectRequired,
				ProjectIDHeader+" header is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetProject extracts the project identifier from context.
func GetProject(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ProjectIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
