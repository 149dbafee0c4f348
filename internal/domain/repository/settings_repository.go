package repository

import (
	"context"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
)

// SettingsRepository defines the interface for system configuration rows
type SettingsRepository interface {
	List(ctx context.Context) ([]entity.SystemConfig, error)
	GetByKey(ctx context.Context, key string) (*entity.SystemConfig, error)
	// Values returns every active setting as key/value pairs
	Values(ctx context.Context) (map[string]string, error)
	// Upsert creates the row or updates its value
	Upsert(ctx context.Context, cfg *entity.SystemConfig) error
}
