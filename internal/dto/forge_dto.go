package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Mode   string `json:"mode"`
}

// GenerateResponse carries either Data or Error depending on Success.
type GenerateResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type SaveHistoryRequest struct {
	OriginalPrompt string          `json:"original_prompt"`
	ImprovedPrompt string          `json:"improved_prompt"`
	Score          float64         `json:"score"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown"`
	Model          string          `json:"model"`
	DurationMs     int64           `json:"duration_ms"`
	Status         string          `json:"status"`
}

type HistoryItem struct {
	ID             uuid.UUID       `json:"id"`
	OriginalPrompt string          `json:"original_prompt"`
	ImprovedPrompt string          `json:"improved_prompt"`
	Score          float64         `json:"score"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown,omitempty"`
	Model          string          `json:"model"`
	DurationMs     int64           `json:"duration_ms"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
