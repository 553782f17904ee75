package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tillhouse/pos/internal/domain"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

func newSettingsService(repo *mockSettingRepository) *SettingsService {
	return NewSettingsService(repo, noopProducer(), testLogger())
}

func TestSettingsService_GetSetting_DecodesJSON(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	repo.On("Get", mock.Anything, "s-1", "tax_rate").Return(&domain.Setting{
		ShopID: "s-1",
		Key:    "tax_rate",
		Value:  json.RawMessage(`10.5`),
	}, nil)

	value, err := svc.GetSetting(context.Background(), "s-1", "tax_rate")
	require.NoError(t, err)
	assert.Equal(t, 10.5, value)
}

func TestSettingsService_GetSetting_LegacyRawString(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	// Rows written by older clients may hold bare strings rather than JSON.
	repo.On("Get", mock.Anything, "s-1", "shop_motto").Return(&domain.Setting{
		ShopID: "s-1",
		Key:    "shop_motto",
		Value:  json.RawMessage(`coffee first`),
	}, nil)

	value, err := svc.GetSetting(context.Background(), "s-1", "shop_motto")
	require.NoError(t, err)
	assert.Equal(t, "coffee first", value)
}

func TestSettingsService_ListSettings(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	repo.On("List", mock.Anything, "s-1").Return([]domain.Setting{
		{ShopID: "s-1", Key: "currency", Value: json.RawMessage(`"EUR"`)},
		{ShopID: "s-1", Key: "receipt", Value: json.RawMessage(`{"footer":"thanks"}`)},
	}, nil)

	values, err := svc.ListSettings(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", values["currency"])
	assert.Equal(t, map[string]any{"footer": "thanks"}, values["receipt"])
}

func TestSettingsService_UpdateSetting_EncodesValue(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *domain.Setting) bool {
		return s.ShopID == "s-1" && s.Key == "tax_rate" && string(s.Value) == "10.5"
	})).Return(nil)

	err := svc.UpdateSetting(context.Background(), "s-1", "tax_rate", 10.5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSettingsService_UpdateSetting_EmptyKey(t *testing.T) {
	svc := newSettingsService(new(mockSettingRepository))

	err := svc.UpdateSetting(context.Background(), "s-1", "", "value")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSettingsService_UpdateSetting_KeyTooLong(t *testing.T) {
	svc := newSettingsService(new(mockSettingRepository))

	err := svc.UpdateSetting(context.Background(), "s-1", strings.Repeat("k", 200), "value")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSettingsService_UpdateSettings_Batch(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	repo.On("UpsertBatch", mock.Anything, mock.MatchedBy(func(settings []domain.Setting) bool {
		return len(settings) == 2
	})).Return(nil)

	err := svc.UpdateSettings(context.Background(), "s-1", map[string]any{
		"currency": "EUR",
		"tax_rate": 10.5,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSettingsService_UpdateSettings_Empty(t *testing.T) {
	svc := newSettingsService(new(mockSettingRepository))

	err := svc.UpdateSettings(context.Background(), "s-1", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSettingsService_ResetSettings(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	repo.On("DeleteAll", mock.Anything, "s-1").Return(nil)

	err := svc.ResetSettings(context.Background(), "s-1")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSettingsService_ExportImport_RoundTrip(t *testing.T) {
	repo := new(mockSettingRepository)
	svc := newSettingsService(repo)

	repo.On("List", mock.Anything, "s-1").Return([]domain.Setting{
		{ShopID: "s-1", Key: "currency", Value: json.RawMessage(`"EUR"`)},
	}, nil)

	exported, err := svc.ExportSettings(context.Background(), "s-1")
	require.NoError(t, err)

	repo.On("UpsertBatch", mock.Anything, mock.MatchedBy(func(settings []domain.Setting) bool {
		return len(settings) == 1 && settings[0].ShopID == "s-2" && string(settings[0].Value) == `"EUR"`
	})).Return(nil)

	err = svc.ImportSettings(context.Background(), "s-2", exported)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
