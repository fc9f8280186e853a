// Package history persists forge results per user in the prompts table.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("prompt not found")

// Store is the relational side of prompt history.
type Store interface {
	Insert(ctx context.Context, p *models.Prompt) error
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Prompt, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, p *models.Prompt) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}
	return nil
}

func (s *GormStore) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Prompt, error) {
	var prompts []models.Prompt
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&prompts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return prompts, nil
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	var p models.Prompt
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load prompt: %w", err)
	}
	return &p, nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Prompt{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete prompt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Prompt{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return count, nil
}
