package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey stores the response of a checkout or collection request
// so that a retried POST with the same Idempotency-Key replays it.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Key          string    `gorm:"column:idempotency_key;uniqueIndex:idx_idempotency_user_key;size:255;not null"`
	UserID       uuid.UUID `gorm:"type:char(36);uniqueIndex:idx_idempotency_user_key;not null"`
	Endpoint     string    `gorm:"size:255;not null"` // e.g. "POST /api/v1/bills"
	RequestHash  string    `gorm:"size:64"`           // SHA-256 of the request body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// BeforeCreate generates a UUID before storing the key
func (i *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
