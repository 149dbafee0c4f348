package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/infrastructure/cache"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

const snapshotCacheKey = "pricing:snapshot"

// SettingsService handles system configuration and the cached pricing snapshot
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	cache        cache.SnapshotCache
	ttl          time.Duration
}

// NewSettingsService creates a new settings service. A nil cache disables caching.
func NewSettingsService(settingsRepo repository.SettingsRepository, snapshotCache cache.SnapshotCache, ttl time.Duration) *SettingsService {
	if snapshotCache == nil {
		snapshotCache = cache.NoopSnapshotCache{}
	}
	return &SettingsService{
		settingsRepo: settingsRepo,
		cache:        snapshotCache,
		ttl:          ttl,
	}
}

// ListSettings returns every setting row
func (s *SettingsService) ListSettings(ctx context.Context) ([]entity.SystemConfig, error) {
	settings, err := s.settingsRepo.List(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	return settings, nil
}

// GetSetting returns one setting by key
func (s *SettingsService) GetSetting(ctx context.Context, key string) (*entity.SystemConfig, error) {
	setting, err := s.settingsRepo.GetByKey(ctx, normalizeKey(key))
	if err != nil {
		return nil, persistenceError(err)
	}
	if setting == nil {
		return nil, apperror.NewNotFoundError("Setting")
	}
	return setting, nil
}

// UpdateSettingInput represents the input for changing a setting
type UpdateSettingInput struct {
	Key         string
	Value       string
	Description *string
	UpdatedBy   uuid.UUID
}

// UpdateSetting validates and stores a value, then drops the cached snapshot
func (s *SettingsService) UpdateSetting(ctx context.Context, input *UpdateSettingInput) (*entity.SystemConfig, error) {
	key := normalizeKey(input.Key)
	value := strings.TrimSpace(input.Value)
	if key == "" {
		return nil, apperror.NewFieldError("key", "is required")
	}
	if err := validateSetting(key, value); err != nil {
		// reported to the client as 422
		if apperror.IsConfiguration(err) {
			return nil, apperror.NewFieldError("value", apperror.GetAppError(err).Message)
		}
		return nil, err
	}

	setting, err := s.settingsRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, persistenceError(err)
	}
	if setting == nil {
		setting = &entity.SystemConfig{Key: key, IsActive: true, Category: "custom"}
	}
	setting.Value = value
	if input.Description != nil {
		setting.Description = *input.Description
	}
	if input.UpdatedBy != uuid.Nil {
		updatedBy := input.UpdatedBy
		setting.UpdatedBy = &updatedBy
	}

	if err := s.settingsRepo.Upsert(ctx, setting); err != nil {
		return nil, persistenceError(err)
	}
	s.Invalidate(ctx)

	log.WithFields(log.Fields{"key": key, "updated_by": input.UpdatedBy}).Info("setting updated")
	return setting, nil
}

// Snapshot returns the pricing configuration, from cache when possible.
// Cache failures fall back to the database.
func (s *SettingsService) Snapshot(ctx context.Context) (pricing.Snapshot, error) {
	cached, ok, err := s.cache.Get(ctx, snapshotCacheKey)
	if err != nil {
		log.WithError(err).Warn("pricing snapshot cache read failed")
	}
	if ok && cached != nil {
		return *cached, nil
	}

	values, err := s.settingsRepo.Values(ctx)
	if err != nil {
		return pricing.Snapshot{}, persistenceError(err)
	}
	snap, err := pricing.SnapshotFromSettings(values)
	if err != nil {
		return pricing.Snapshot{}, err
	}

	if err := s.cache.Set(ctx, snapshotCacheKey, &snap, s.ttl); err != nil {
		log.WithError(err).Warn("pricing snapshot cache write failed")
	}
	return snap, nil
}

// Invalidate drops the cached snapshot
func (s *SettingsService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, snapshotCacheKey); err != nil {
		log.WithError(err).Warn("pricing snapshot cache invalidation failed")
	}
}

// Value returns the active value of key, or def when it is not set
func (s *SettingsService) Value(ctx context.Context, key, def string) (string, error) {
	values, err := s.settingsRepo.Values(ctx)
	if err != nil {
		return "", persistenceError(err)
	}
	if v, ok := values[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return def, nil
}

// CompanyInfo returns the receipt header and footer
func (s *SettingsService) CompanyInfo(ctx context.Context) (entity.ReceiptHeader, string, error) {
	values, err := s.settingsRepo.Values(ctx)
	if err != nil {
		return entity.ReceiptHeader{}, "", persistenceError(err)
	}
	header := entity.ReceiptHeader{
		CompanyName: values[entity.SettingCompanyName],
		Address:     values[entity.SettingCompanyAddress],
		Phone:       values[entity.SettingCompanyPhone],
		Email:       values[entity.SettingCompanyEmail],
	}
	if header.CompanyName == "" {
		header.CompanyName = "Bookshop"
	}
	return header, values[entity.SettingReceiptFooter], nil
}

// AutoRestockEnabled reads AUTO_RESTOCK_ENABLED, falling back to def
func (s *SettingsService) AutoRestockEnabled(ctx context.Context, def bool) bool {
	raw, err := s.Value(ctx, entity.SettingAutoRestockEnabled, "")
	if err != nil || raw == "" {
		return def
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return enabled
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func validateSetting(key, value string) error {
	switch key {
	case entity.SettingAccountLength:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 12 {
			return apperror.NewConfigurationError(key, "must be a whole number between 1 and 12")
		}
		return nil
	case entity.SettingAutoRestockEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return apperror.NewConfigurationError(key, "must be true or false")
		}
		return nil
	case entity.SettingCompanyName:
		if value == "" {
			return apperror.NewFieldError("value", "company name must not be empty")
		}
		return nil
	}
	return pricing.ValidateSetting(key, value)
}
