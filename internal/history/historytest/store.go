// Package historytest provides an in-memory history.Store for tests.
package historytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/history"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	mu      sync.Mutex
	prompts map[uuid.UUID]models.Prompt

	// CountErr and InsertErr, when set, are returned by the matching methods.
	CountErr  error
	InsertErr error
}

func New() *Store {
	return &Store{prompts: make(map[uuid.UUID]models.Prompt)}
}

// Add stores a row for userID created at the given time.
func (s *Store) Add(userID uuid.UUID, createdAt time.Time) models.Prompt {
	p := models.Prompt{
		ID:             uuid.New(),
		UserID:         userID,
		OriginalPrompt: "original",
		ImprovedPrompt: "improved",
		Status:         "success",
		CreatedAt:      createdAt,
	}
	s.mu.Lock()
	s.prompts[p.ID] = p
	s.mu.Unlock()
	return p
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *Store) Insert(_ context.Context, p *models.Prompt) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.prompts[p.ID] = *p
	return nil
}

func (s *Store) Recent(_ context.Context, userID uuid.UUID, limit int) ([]models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Prompt, 0)
	for _, p := range s.prompts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return nil, history.ErrNotFound
	}
	return &p, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prompts[id]; !ok {
		return history.ErrNotFound
	}
	delete(s.prompts, id)
	return nil
}

func (s *Store) CountSince(_ context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.prompts {
		if p.UserID == userID && !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

var _ history.Store = (*Store)(nil)
