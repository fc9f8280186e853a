package models

import (
	"time"

	"github.com/google/uuid"
)

// OneTimeCode is the single pending code a user holds for one purpose.
// The composite key enforces at most one code per (user, purpose).
type OneTimeCode struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Purpose   string    `gorm:"size:20;primaryKey" json:"purpose"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Target    string    `gorm:"size:255" json:"target"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
