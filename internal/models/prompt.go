package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Prompt is one saved forge result in a user's history.
type Prompt struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_prompts_user_created" json:"user_id"`
	OriginalPrompt string         `gorm:"type:text;not null" json:"original_prompt"`
	ImprovedPrompt string         `gorm:"type:text;not null" json:"improved_prompt"`
	Score          float64        `json:"score"`
	ScoreBreakdown datatypes.JSON `gorm:"type:jsonb" json:"score_breakdown,omitempty"`
	Model          string         `gorm:"size:100" json:"model"`
	DurationMs     int64          `json:"duration_ms"`
	Status         string         `gorm:"size:20;default:'success'" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_prompts_user_created" json:"created_at"`
}
