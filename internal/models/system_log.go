package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog is one ERROR+ record written by the logging layer. Request
// fields are columns; any other attribute lands in Extra.
type SystemLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Level     string    `gorm:"size:8;not null;index" json:"level"`
	Message   string    `gorm:"type:text" json:"message"`

	RequestID string  `gorm:"size:64;index" json:"request_id"`
	Method    string  `gorm:"size:8" json:"method,omitempty"`
	Path      string  `gorm:"size:255" json:"path,omitempty"`
	UserID    *string `gorm:"size:36;index" json:"user_id,omitempty"`
	Action    string  `gorm:"size:64" json:"action,omitempty"`
	Error     string  `gorm:"type:text" json:"error,omitempty"`
	LatencyMs int     `json:"latency_ms"`

	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
