package http

import (
	"log/slog"
	"net/http"

	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/pkg/httputil"
)

// SyncHandler exposes the cloud sync bridge's health endpoint. Access is
// guarded by the API key middleware, not JWT auth.
type SyncHandler struct {
	service *service.SyncService
	logger  *slog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(service *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{service: service, logger: logger}
}

// Health handles GET /api/v1/sync/health.
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Status()})
}
