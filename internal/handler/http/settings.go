package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillhouse/pos/internal/service"
	apperrors "github.com/tillhouse/pos/pkg/errors"
	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/validator"
)

// SettingsHandler handles per-shop settings endpoints.
type SettingsHandler struct {
	service *service.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(service *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, logger: logger}
}

// SettingResponse is the response body for a single setting.
type SettingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// UpdateSettingRequest is the request body for storing a single setting.
// Value accepts any JSON shape.
type UpdateSettingRequest struct {
	Value any `json:"value"`
}

// Get handles GET /api/v1/shops/{shopID}/settings/{key}. An absent key
// yields a 200 response with a null value rather than a 404.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopID")
	key := chi.URLParam(r, "key")

	value, err := h.service.GetSetting(r.Context(), shopID, key)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SettingResponse{Key: key, Value: value},
	})
}

// List handles GET /api/v1/shops/{shopID}/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ListSettings(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: settings})
}

// Update handles PUT /api/v1/shops/{shopID}/settings/{key}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req UpdateSettingRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopID := chi.URLParam(r, "shopID")
	key := chi.URLParam(r, "key")

	if err := h.service.UpdateSetting(r.Context(), shopID, key, req.Value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SettingResponse{Key: key, Value: req.Value},
	})
}

// UpdateBatch handles PUT /api/v1/shops/{shopID}/settings. The body is a
// key/value object; all entries are written atomically.
func (h *SettingsHandler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopID := chi.URLParam(r, "shopID")

	if err := h.service.UpdateSettings(r.Context(), shopID, values); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: values})
}

// Delete handles DELETE /api/v1/shops/{shopID}/settings/{key}.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSetting(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "key")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reset handles DELETE /api/v1/shops/{shopID}/settings.
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetSettings(r.Context(), chi.URLParam(r, "shopID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/shops/{shopID}/settings/export.
func (h *SettingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ExportSettings(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: settings})
}

// Import handles POST /api/v1/shops/{shopID}/settings/import.
func (h *SettingsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopID := chi.URLParam(r, "shopID")

	if err := h.service.ImportSettings(r.Context(), shopID, values); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: values})
}
