package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/event"
	"github.com/tillhouse/pos/internal/repository"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// maxSettingKeyLength bounds setting key sizes to keep keys usable as
// identifiers downstream.
const maxSettingKeyLength = 128

// SettingsService implements per-shop settings storage. Values of any JSON
// shape are accepted and round-tripped.
type SettingsService struct {
	repo     repository.SettingRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo repository.SettingRepository, producer *event.Producer, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// GetSetting retrieves a single decoded setting value.
func (s *SettingsService) GetSetting(ctx context.Context, shopID, key string) (any, error) {
	setting, err := s.repo.Get(ctx, shopID, key)
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return domain.DecodeSettingValue(setting.Value), nil
}

// ListSettings returns all of the shop's settings as a decoded key/value map.
func (s *SettingsService) ListSettings(ctx context.Context, shopID string) (map[string]any, error) {
	settings, err := s.repo.List(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	result := make(map[string]any, len(settings))
	for _, setting := range settings {
		result[setting.Key] = domain.DecodeSettingValue(setting.Value)
	}

	return result, nil
}

// UpdateSetting stores a single setting value.
func (s *SettingsService) UpdateSetting(ctx context.Context, shopID, key string, value any) error {
	if err := validateSettingKey(key); err != nil {
		return err
	}

	encoded, err := domain.EncodeSettingValue(value)
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("value for %q is not serializable", key))
	}

	setting := &domain.Setting{
		ShopID: shopID,
		Key:    key,
		Value:  encoded,
	}

	if err := s.repo.Upsert(ctx, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}

	s.publishUpdated(ctx, shopID, []string{key})

	s.logger.InfoContext(ctx, "setting updated",
		slog.String("shop_id", shopID),
		slog.String("key", key),
	)

	return nil
}

// UpdateSettings stores multiple settings atomically. Either every entry is
// written or none are.
func (s *SettingsService) UpdateSettings(ctx context.Context, shopID string, values map[string]any) error {
	if len(values) == 0 {
		return apperrors.InvalidInput("no settings provided")
	}

	settings := make([]domain.Setting, 0, len(values))
	keys := make([]string, 0, len(values))
	for key, value := range values {
		if err := validateSettingKey(key); err != nil {
			return err
		}
		encoded, err := domain.EncodeSettingValue(value)
		if err != nil {
			return apperrors.InvalidInput(fmt.Sprintf("value for %q is not serializable", key))
		}
		settings = append(settings, domain.Setting{
			ShopID: shopID,
			Key:    key,
			Value:  encoded,
		})
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := s.repo.UpsertBatch(ctx, settings); err != nil {
		return fmt.Errorf("upsert settings batch: %w", err)
	}

	s.publishUpdated(ctx, shopID, keys)

	s.logger.InfoContext(ctx, "settings batch updated",
		slog.String("shop_id", shopID),
		slog.Int("count", len(settings)),
	)

	return nil
}

// DeleteSetting removes a single setting.
func (s *SettingsService) DeleteSetting(ctx context.Context, shopID, key string) error {
	if err := s.repo.Delete(ctx, shopID, key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}

	s.logger.InfoContext(ctx, "setting deleted",
		slog.String("shop_id", shopID),
		slog.String("key", key),
	)

	return nil
}

// ResetSettings removes every setting for the shop.
func (s *SettingsService) ResetSettings(ctx context.Context, shopID string) error {
	if err := s.repo.DeleteAll(ctx, shopID); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}

	s.logger.InfoContext(ctx, "settings reset",
		slog.String("shop_id", shopID),
	)

	return nil
}

// ExportSettings returns the shop's settings as a raw key/value map suitable
// for backup or transfer to another device.
func (s *SettingsService) ExportSettings(ctx context.Context, shopID string) (map[string]any, error) {
	return s.ListSettings(ctx, shopID)
}

// ImportSettings loads a previously exported settings map into the shop,
// replacing entries that share a key and leaving the rest untouched.
func (s *SettingsService) ImportSettings(ctx context.Context, shopID string, values map[string]any) error {
	return s.UpdateSettings(ctx, shopID, values)
}

func (s *SettingsService) publishUpdated(ctx context.Context, shopID string, keys []string) {
	if err := s.producer.PublishSettingsUpdated(ctx, shopID, keys); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish settings.updated event",
			slog.String("shop_id", shopID),
			slog.String("error", err.Error()),
		)
	}
}

func validateSettingKey(key string) error {
	if key == "" {
		return apperrors.InvalidInput("setting key is required")
	}
	if len(key) > maxSettingKeyLength {
		return apperrors.InvalidInput(fmt.Sprintf("setting key must be at most %d characters", maxSettingKeyLength))
	}
	return nil
}
