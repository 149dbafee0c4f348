package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
)

// User is any account in the system: staff (admin, cashier) or customer.
// Customers carry an account number and their cumulative units consumed.
type User struct {
	ID            uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	Username      string        `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password      string        `gorm:"size:255;not null" json:"-"`
	Email         string        `gorm:"size:255;index" json:"email,omitempty"`
	FullName      string        `gorm:"size:255;not null" json:"full_name"`
	Phone         string        `gorm:"size:50" json:"phone,omitempty"`
	Address       string        `gorm:"type:text" json:"address,omitempty"`
	Role          enum.UserRole `gorm:"size:20;not null;index" json:"role"`
	AccountNumber *string       `gorm:"size:50;uniqueIndex" json:"account_number,omitempty"`
	UnitsConsumed int           `gorm:"not null;default:0" json:"units_consumed"`
	IsActive      bool          `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt   *time.Time    `json:"last_login_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsCustomer reports whether the user is a customer account
func (u *User) IsCustomer() bool {
	return u.Role == enum.RoleCustomer
}

// Account returns the account number or an empty string
func (u *User) Account() string {
	if u.AccountNumber == nil {
		return ""
	}
	return *u.AccountNumber
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
