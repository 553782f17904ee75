package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tillhouse/pos/internal/domain"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

func settingsRouter(repo *mockSettingRepo) *chi.Mux {
	handler := NewSettingsHandler(settingsService(repo), handlerTestLogger())
	return setupShopRouter(testUserID, testShopID, "owner", func(r chi.Router) {
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Put("/", handler.UpdateBatch)
			r.Delete("/", handler.Reset)
			r.Get("/export", handler.Export)
			r.Post("/import", handler.Import)
			r.Get("/{key}", handler.Get)
			r.Put("/{key}", handler.Update)
			r.Delete("/{key}", handler.Delete)
		})
	})
}

func TestSettingsHandler_Get_Success(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	repo.On("Get", mock.Anything, testShopID, "tax_rate").Return(&domain.Setting{
		ShopID: testShopID,
		Key:    "tax_rate",
		Value:  json.RawMessage(`10.5`),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+testShopID+"/settings/tax_rate", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "tax_rate", data["key"])
	assert.Equal(t, 10.5, data["value"])
}

func TestSettingsHandler_Get_AbsentKeyYieldsNull(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	repo.On("Get", mock.Anything, testShopID, "missing").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+testShopID+"/settings/missing", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "absent settings are a null value, not a 404")

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "missing", data["key"])
	assert.Nil(t, data["value"])
}

func TestSettingsHandler_Update_Success(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *domain.Setting) bool {
		return s.Key == "currency" && string(s.Value) == `"EUR"`
	})).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/shops/"+testShopID+"/settings/currency",
		bytes.NewReader([]byte(`{"value":"EUR"}`)))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestSettingsHandler_UpdateBatch_Success(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	repo.On("UpsertBatch", mock.Anything, mock.MatchedBy(func(s []domain.Setting) bool {
		return len(s) == 2
	})).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/shops/"+testShopID+"/settings",
		bytes.NewReader([]byte(`{"tax_rate":10.5,"currency":"EUR"}`)))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestSettingsHandler_UpdateBatch_EmptyRejected(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/shops/"+testShopID+"/settings",
		bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "UpsertBatch")
}

func TestSettingsHandler_List_Success(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	repo.On("List", mock.Anything, testShopID).Return([]domain.Setting{
		{ShopID: testShopID, Key: "tax_rate", Value: json.RawMessage(`10.5`)},
		{ShopID: testShopID, Key: "receipt_footer", Value: json.RawMessage(`"thanks!"`)},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+testShopID+"/settings", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	require.Len(t, data, 2)
	assert.Equal(t, 10.5, data["tax_rate"])
	assert.Equal(t, "thanks!", data["receipt_footer"])
}

func TestSettingsHandler_Reset_Success(t *testing.T) {
	repo := new(mockSettingRepo)
	router := settingsRouter(repo)

	repo.On("DeleteAll", mock.Anything, testShopID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/shops/"+testShopID+"/settings", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}
