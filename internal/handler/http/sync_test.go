package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/pkg/middleware"
)

func syncRouter(apiKey string) *chi.Mux {
	svc := service.NewSyncService(nil, "", "test", handlerTestLogger())
	handler := NewSyncHandler(svc, handlerTestLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(middleware.APIKey(apiKey))
		r.Get("/health", handler.Health)
	})
	return r
}

func TestSyncHandler_Health_WithValidKey(t *testing.T) {
	router := syncRouter("super-secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/health", nil)
	req.Header.Set("X-API-Key", "super-secret-key")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, false, data["remote_configured"])
	assert.Equal(t, "disabled", data["circuit_state"])
}

func TestSyncHandler_Health_WithBearerKey(t *testing.T) {
	router := syncRouter("super-secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/health", nil)
	req.Header.Set("Authorization", "Bearer super-secret-key")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSyncHandler_Health_WithBadKey(t *testing.T) {
	router := syncRouter("super-secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/health", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncHandler_Health_WithoutKey(t *testing.T) {
	router := syncRouter("super-secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
