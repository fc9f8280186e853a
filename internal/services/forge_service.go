package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/history"
	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/llm"
	"github.com/codeWithMuze/Prompteon/internal/metrics"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
)

// Caller is the resolved identity of a forge request. A nil *Caller is
// anonymous.
type Caller struct {
	UserID uuid.UUID
	Plan   string
}

// ForgeService scores and rewrites prompts, metering and recording calls for
// signed-in users.
type ForgeService struct {
	tokens *TokenService
	dir    identity.Directory
	usage  *UsageService
	store  history.Store
	forger llm.Forger
	now    func() time.Time
}

func NewForgeService(tokens *TokenService, dir identity.Directory, usage *UsageService, store history.Store, forger llm.Forger) *ForgeService {
	return &ForgeService{tokens: tokens, dir: dir, usage: usage, store: store, forger: forger, now: time.Now}
}

// ResolveCaller turns an access token into a Caller. Anything that does not
// resolve to a live user yields nil and the request continues anonymously.
func (s *ForgeService) ResolveCaller(ctx context.Context, accessToken string) *Caller {
	if accessToken == "" {
		return nil
	}
	claims, ok := s.tokens.Verify(accessToken)
	if !ok || claims.Type != TokenTypeAccess {
		return nil
	}
	userID, err := claims.Identity()
	if err != nil {
		return nil
	}
	user, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		slog.Warn("forge: could not resolve caller, continuing anonymously", "user_id", userID, "error", err)
		return nil
	}
	plan := user.Plan
	if plan == "" {
		plan = models.PlanFree
	}
	return &Caller{UserID: user.ID, Plan: plan}
}

// Generate runs one forge call. The LLM is called once; its failures are
// reported as ErrForgeFailed. A failure to record history is only logged.
func (s *ForgeService) Generate(ctx context.Context, caller *Caller, prompt, mode string) (*llm.Analysis, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		metrics.ObserveForge("invalid", 0)
		return nil, ErrEmptyPrompt
	}

	if caller != nil {
		decision, err := s.usage.CheckLimit(ctx, caller.UserID, caller.Plan)
		if err != nil {
			metrics.ObserveForge("usage_unavailable", 0)
			return nil, err
		}
		if !decision.Allowed {
			metrics.ObserveForge("limited", 0)
			return nil, ErrUsageExceeded
		}
	}

	start := s.now()
	analysis, err := s.forger.Forge(ctx, prompt, llm.ParseMode(mode))
	elapsed := s.now().Sub(start)
	if err != nil {
		metrics.ObserveForge("llm_error", elapsed)
		slog.Error("forge call failed", "error", err, "latency_ms", elapsed.Milliseconds())
		return nil, ErrForgeFailed
	}
	metrics.ObserveForge("success", elapsed)

	if caller != nil {
		s.record(ctx, caller.UserID, prompt, analysis, elapsed)
	}
	return analysis, nil
}

func (s *ForgeService) record(ctx context.Context, userID uuid.UUID, prompt string, a *llm.Analysis, elapsed time.Duration) {
	breakdown, err := json.Marshal(a.Metrics)
	if err != nil {
		breakdown = nil
	}
	row := &models.Prompt{
		UserID:         userID,
		OriginalPrompt: prompt,
		ImprovedPrompt: a.ImprovedPrompt,
		Score:          a.Score,
		ScoreBreakdown: breakdown,
		Model:          s.forger.Model(),
		DurationMs:     elapsed.Milliseconds(),
		Status:         defaultStatus,
	}
	if err := s.store.Insert(ctx, row); err != nil {
		slog.Error("forge result not saved", "user_id", userID, "action", "forge", "error", err)
	}
}

