package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/bookshop-pos/internal/config"
	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
)

// DefaultSettings is every system setting a fresh shop starts with
func DefaultSettings() []entity.SystemConfig {
	describe := map[string]string{
		pricing.KeyUnitRate:          "Rate per unit consumed",
		pricing.KeyTaxRate:           "Tax rate as a fraction (0.10 = 10%)",
		pricing.KeyDeliveryCharge:    "Flat delivery charge",
		pricing.KeyLowStockThreshold: "Books at or below this quantity are low on stock",
	}

	var settings []entity.SystemConfig
	for key, value := range pricing.DefaultSettings() {
		category := "billing"
		if strings.HasPrefix(key, "DISCOUNT_LEVEL_") {
			category = "discount"
		} else if key == pricing.KeyLowStockThreshold {
			category = "inventory"
		}
		settings = append(settings, entity.SystemConfig{
			Key: key, Value: value, Description: describe[key], Category: category, IsActive: true,
		})
	}
	return append(settings,
		entity.SystemConfig{Key: entity.SettingCompanyName, Value: "Pahana Edu Bookshop", Description: "Printed on receipts", Category: "company", IsActive: true},
		entity.SystemConfig{Key: entity.SettingCompanyAddress, Value: "No. 12, Main Street, Colombo", Category: "company", IsActive: true},
		entity.SystemConfig{Key: entity.SettingCompanyPhone, Value: "+94 11 234 5678", Category: "company", IsActive: true},
		entity.SystemConfig{Key: entity.SettingCompanyEmail, Value: "info@pahanaedu.lk", Category: "company", IsActive: true},
		entity.SystemConfig{Key: entity.SettingAccountPrefix, Value: "ACC-", Description: "Prefix of customer account numbers", Category: "customer", IsActive: true},
		entity.SystemConfig{Key: entity.SettingAccountLength, Value: "6", Description: "Digits in customer account numbers", Category: "customer", IsActive: true},
		entity.SystemConfig{Key: entity.SettingAutoRestockEnabled, Value: "true", Description: "Restore stock when a reserved order is cancelled", Category: "inventory", IsActive: true},
		entity.SystemConfig{Key: entity.SettingReceiptFooter, Value: "Thank you for shopping with us!", Category: "company", IsActive: true},
	)
}

// Seed inserts missing default settings, the first administrator and,
// when withSamples is set, a handful of books. Existing rows are left alone.
func Seed(ctx context.Context, db *gorm.DB, admin config.AdminConfig, withSamples bool) error {
	log.Info("seeding default data")
	tx := db.WithContext(ctx)

	settings := DefaultSettings()
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	if err := seedAdmin(tx, admin); err != nil {
		return err
	}

	if withSamples {
		books := sampleBooks()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&books).Error; err != nil {
			return fmt.Errorf("seed books: %w", err)
		}
		log.WithField("count", len(books)).Info("sample books seeded")
	}

	log.Info("default data seeding completed")
	return nil
}

func seedAdmin(tx *gorm.DB, admin config.AdminConfig) error {
	if admin.Username == "" || admin.Password == "" {
		log.Warn("ADMIN_PASSWORD not set, skipping administrator seed")
		return nil
	}

	var count int64
	if err := tx.Model(&entity.User{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("look up administrator: %w", err)
	}
	if count > 0 {
		log.WithField("username", admin.Username).Info("administrator already exists")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash administrator password: %w", err)
	}
	user := entity.User{
		Username: admin.Username,
		Password: string(hashed),
		Email:    admin.Email,
		FullName: admin.Name,
		Role:     enum.RoleAdmin,
		IsActive: true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}
	log.WithField("username", admin.Username).Info("administrator created")
	return nil
}

func sampleBooks() []entity.Book {
	book := func(title, author, isbn, price string, qty int, category string) entity.Book {
		return entity.Book{
			Title: title, Author: author, ISBN: isbn, Price: decimal.RequireFromString(price),
			Quantity: qty, Category: category, Language: "English", IsActive: true,
		}
	}
	return []entity.Book{
		book("The Go Programming Language", "Alan Donovan, Brian Kernighan", "9780134190440", "15.99", 12, "Programming"),
		book("Go in Action", "William Kennedy", "9781617291784", "10.99", 8, "Programming"),
		book("Madol Doova", "Martin Wickramasinghe", "9789552105513", "6.50", 20, "Fiction"),
		book("Gamperaliya", "Martin Wickramasinghe", "9789552105520", "7.25", 4, "Fiction"),
		book("A Brief History of Time", "Stephen Hawking", "9780553380163", "12.00", 6, "Science"),
	}
}
