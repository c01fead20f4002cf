package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/queue-broker-service/internal/api/middleware"
)

func TestProjectContext_ExtractsProject(t *testing.T) {
	handler := middleware.ProjectContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		project, ok := middleware.GetProject(r.Context())
		if !ok {
			t.Fatal("expected project in context")
		}
		if project != "acme" {
			t.Errorf("expected acme, got %s", project)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.ProjectIDHeader, "acme")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestRequireProject_RejectsMissingProject(t *testing.T) {
	handler := middleware.ProjectContext(
		middleware.RequireProject(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		})),
	)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}
