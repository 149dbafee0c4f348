package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
)

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.Book{},
		&entity.Bill{},
		&entity.BillItem{},
		&entity.SystemConfig{},
		&entity.IdempotencyKey{},
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}
