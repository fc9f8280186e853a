package services

import (
	"context"
	"errors"
	"strings"

	"github.com/codeWithMuze/Prompteon/internal/history"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RecentHistoryLimit = 5
	defaultModel       = "gpt-4"
	defaultStatus      = "success"
)

type SaveHistoryInput struct {
	OriginalPrompt string
	ImprovedPrompt string
	Score          float64
	ScoreBreakdown []byte
	Model          string
	DurationMs     int64
	Status         string
}

type HistoryService struct {
	store history.Store
}

func NewHistoryService(store history.Store) *HistoryService {
	return &HistoryService{store: store}
}

func (s *HistoryService) Recent(ctx context.Context, userID uuid.UUID) ([]models.Prompt, error) {
	return s.store.Recent(ctx, userID, RecentHistoryLimit)
}

func (s *HistoryService) Save(ctx context.Context, userID uuid.UUID, in SaveHistoryInput) (*models.Prompt, error) {
	if strings.TrimSpace(in.OriginalPrompt) == "" || strings.TrimSpace(in.ImprovedPrompt) == "" {
		return nil, invalid("Missing required fields")
	}

	p := &models.Prompt{
		UserID:         userID,
		OriginalPrompt: in.OriginalPrompt,
		ImprovedPrompt: in.ImprovedPrompt,
		Score:          in.Score,
		Model:          in.Model,
		DurationMs:     in.DurationMs,
		Status:         in.Status,
	}
	if b := in.ScoreBreakdown; len(b) > 0 && string(b) != "null" {
		p.ScoreBreakdown = datatypes.JSON(b)
	}
	if p.Model == "" {
		p.Model = defaultModel
	}
	if p.Status == "" {
		p.Status = defaultStatus
	}
	if p.DurationMs < 0 {
		p.DurationMs = 0
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a row owned by userID. Rows of other users are left intact
// and reported as ErrForbidden.
func (s *HistoryService) Delete(ctx context.Context, userID, promptID uuid.UUID) error {
	p, err := s.store.Get(ctx, promptID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, promptID); err != nil && !errors.Is(err, history.ErrNotFound) {
		return err
	}
	return nil
}
