package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/history"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
)

const (
	FreeDailyLimit   = 3
	UsageExceededMsg = "Today's credits are over. Use Pro version to get unlimited prompt usage."
)

type UsageDecision struct {
	Allowed bool
	Used    int64
	Message string
}

// UsageService meters forge calls per UTC day from the history table.
type UsageService struct {
	store history.Store
	now   func() time.Time
}

func NewUsageService(store history.Store) *UsageService {
	return &UsageService{store: store, now: time.Now}
}

func (s *UsageService) WithClock(now func() time.Time) *UsageService {
	s.now = now
	return s
}

func startOfUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CheckLimit fails closed: a count failure returns ErrUsageUnavailable.
func (s *UsageService) CheckLimit(ctx context.Context, userID uuid.UUID, plan string) (*UsageDecision, error) {
	used, err := s.store.CountSince(ctx, userID, startOfUTCDay(s.now()))
	if err != nil {
		slog.Error("usage verification failure", "user_id", userID, "error", err)
		return nil, ErrUsageUnavailable
	}
	if plan != models.PlanPro && used >= FreeDailyLimit {
		return &UsageDecision{Allowed: false, Used: used, Message: UsageExceededMsg}, nil
	}
	return &UsageDecision{Allowed: true, Used: used}, nil
}
