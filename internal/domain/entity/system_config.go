package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemConfig is one key/value shop setting, e.g. TAX_RATE or COMPANY_NAME
type SystemConfig struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Key         string     `gorm:"column:config_key;size:100;uniqueIndex;not null" json:"key"`
	Value       string     `gorm:"column:config_value;type:text;not null" json:"value"`
	Description string     `gorm:"size:255" json:"description,omitempty"`
	Category    string     `gorm:"size:50;index" json:"category,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	UpdatedBy   *uuid.UUID `gorm:"type:char(36)" json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new setting
func (s *SystemConfig) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SystemConfig model
func (SystemConfig) TableName() string {
	return "system_config"
}

// Setting keys outside the pricing engine
const (
	SettingCompanyName        = "COMPANY_NAME"
	SettingCompanyAddress     = "COMPANY_ADDRESS"
	SettingCompanyPhone       = "COMPANY_PHONE"
	SettingCompanyEmail       = "COMPANY_EMAIL"
	SettingReceiptFooter      = "RECEIPT_FOOTER"
	SettingAccountPrefix      = "ACCOUNT_PREFIX"
	SettingAccountLength      = "ACCOUNT_LENGTH"
	SettingAutoRestockEnabled = "AUTO_RESTOCK_ENABLED"
)
