package repository

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
)

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) domainRepo.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) List(ctx context.Context) ([]entity.SystemConfig, error) {
	var configs []entity.SystemConfig
	err := r.db.WithContext(ctx).Order("category ASC, config_key ASC").Find(&configs).Error
	return configs, pkgerrors.Wrap(err, "list settings")
}

func (r *settingsRepository) GetByKey(ctx context.Context, key string) (*entity.SystemConfig, error) {
	var cfg entity.SystemConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "get setting %s", key)
	}
	return &cfg, nil
}

func (r *settingsRepository) Values(ctx context.Context) (map[string]string, error) {
	var configs []entity.SystemConfig
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&configs).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load settings")
	}
	values := make(map[string]string, len(configs))
	for _, c := range configs {
		values[c.Key] = c.Value
	}
	return values, nil
}

// Upsert works on both drivers: gorm renders ON CONFLICT for Postgres and
// ON DUPLICATE KEY UPDATE for MySQL.
func (r *settingsRepository) Upsert(ctx context.Context, cfg *entity.SystemConfig) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_value", "description", "category", "is_active", "updated_by", "updated_at"}),
	}).Create(cfg).Error
	return pkgerrors.Wrapf(err, "save setting %s", cfg.Key)
}
