package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/google/uuid"
)

const (
	ResetCodeTTL   = 10 * time.Minute
	PhoneCodeTTL   = 5 * time.Minute
	ConfirmCodeTTL = 5 * time.Minute
)

var codeSpan = big.NewInt(900000)

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// OTPService stores and checks pending one-time codes. Applying the effect
// of a verified code is left to the caller, which spends the code with Use
// in the same directory update.
type OTPService struct {
	dir      identity.Directory
	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(dir identity.Directory) *OTPService {
	return &OTPService{dir: dir, now: time.Now, generate: GenerateCode}
}

func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

// Issue replaces any pending code for purpose with a fresh one.
func (s *OTPService) Issue(ctx context.Context, userID uuid.UUID, purpose identity.Purpose, target string, ttl time.Duration) (*identity.PendingCode, error) {
	code, err := s.generate()
	if err != nil {
		return nil, err
	}
	pending := identity.PendingCode{
		Purpose:   purpose,
		Code:      code,
		Target:    target,
		ExpiresAt: s.now().Add(ttl).UTC(),
	}
	if err := s.dir.PutCode(ctx, userID, pending); err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}
	return &pending, nil
}

func noPendingFor(purpose identity.Purpose) error {
	if purpose == identity.PurposeEmailConfirm {
		return ErrNoOTPRequested
	}
	return ErrNoPendingCode
}

func expiredFor(purpose identity.Purpose) error {
	if purpose == identity.PurposePhone {
		return expiredFor(purpose)
	}
	return ErrOTPExpired
}

// Check validates code against the pending one. target is compared only
// when non-empty. An expired code is removed. Codes are compared as plain
// strings.
func (s *OTPService) Check(ctx context.Context, userID uuid.UUID, purpose identity.Purpose, code, target string) error {
	pending, err := s.dir.GetCode(ctx, userID, purpose)
	if errors.Is(err, identity.ErrNoPendingCode) {
		return noPendingFor(purpose)
	}
	if err != nil {
		return err
	}

	if s.now().After(pending.ExpiresAt) {
		if err := s.dir.DeleteCode(ctx, userID, purpose); err != nil {
			slog.Warn("failed to clear expired code", "user_id", userID, "purpose", purpose, "error", err)
		}
		return expiredFor(purpose)
	}
	if target != "" && pending.Target != target {
		return ErrTargetMismatch
	}
	if pending.Code != code {
		return ErrCodeMismatch
	}
	return nil
}

// Use spends a checked code in the directory update that applies its effect.
// Only one of two concurrent updates carrying the same code succeeds.
func (s *OTPService) Use(purpose identity.Purpose, code string) *identity.CodeUse {
	return &identity.CodeUse{Purpose: purpose, Code: code, At: s.now().UTC()}
}

// spent maps a code lost between Check and the update to the flow's
// no-pending error.
func spent(purpose identity.Purpose, err error) error {
	if errors.Is(err, identity.ErrNoPendingCode) {
		return noPendingFor(purpose)
	}
	return err
}
