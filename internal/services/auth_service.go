package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/metrics"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/codeWithMuze/Prompteon/internal/notify"
)

const MinPasswordLength = 6

type AuthService struct {
	dir    identity.Directory
	tokens *TokenService
	otp    *OTPService
	email  notify.EmailSender
}

func NewAuthService(dir identity.Directory, tokens *TokenService, otp *OTPService, email notify.EmailSender) *AuthService {
	return &AuthService{dir: dir, tokens: tokens, otp: otp, email: email}
}

func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*models.User, *TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, invalid("Email and password required")
	}
	if len(password) < MinPasswordLength {
		return nil, nil, invalid("Password must be at least 6 characters")
	}

	user, err := s.dir.CreateUser(ctx, identity.NewUser{Email: email, Password: password, Name: strings.TrimSpace(name)})
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("user signed up", "user_id", user.ID, "action", "signup")
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, nil, invalid("Email and password required")
	}

	user, err := s.dir.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates both tokens. The refresh token must carry the user's
// current token version.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	claims, ok := s.tokens.Verify(refreshToken)
	if !ok || claims.Type != TokenTypeRefresh {
		return nil, nil, ErrInvalidSession
	}
	userID, err := claims.Identity()
	if err != nil {
		return nil, nil, ErrInvalidSession
	}

	user, err := s.dir.GetUser(ctx, userID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, nil, ErrInvalidSession
	}
	if err != nil {
		return nil, nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		slog.Info("refresh rejected: revoked token version", "user_id", user.ID, "action", "refresh")
		return nil, nil, ErrInvalidSession
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// SendPasswordReset emails a reset code when the account exists. It reports
// success either way so callers cannot probe for accounts.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("Email is required")
	}

	user, err := s.dir.FindByEmail(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pending, err := s.otp.Issue(ctx, user.ID, identity.PurposePasswordReset, user.Email, ResetCodeTTL)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes. Do not share this code.", pending.Code)
	err = s.email.Send(ctx, user.Email, "Reset Password - Prompteon", body)
	metrics.ObserveDispatch("email", err)
	if err != nil {
		slog.Error("password reset email failed", "user_id", user.ID, "action", "forgot_password", "error", err)
	}
	return nil
}

// ResetPassword checks the reset code and sets the new password in the same
// update that clears the code.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if strings.TrimSpace(email) == "" || code == "" || newPassword == "" {
		return invalid("All fields are required")
	}
	if len(newPassword) < MinPasswordLength {
		return invalid("Password must be at least 6 characters")
	}

	user, err := s.dir.FindByEmail(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return invalid("Invalid request")
	}
	if err != nil {
		return err
	}

	if err := s.otp.Check(ctx, user.ID, identity.PurposePasswordReset, code, ""); err != nil {
		if errors.Is(err, ErrNoPendingCode) {
			return invalid("Invalid request")
		}
		return err
	}

	_, err = s.dir.UpdateUser(ctx, user.ID, identity.Changes{
		Password: &newPassword,
		Consume:  s.otp.Use(identity.PurposePasswordReset, code),
	})
	if err != nil {
		if err = spent(identity.PurposePasswordReset, err); errors.Is(err, ErrNoPendingCode) {
			return invalid("Invalid request")
		}
		return err
	}
	slog.Info("password reset", "user_id", user.ID, "action", "reset_password")
	return nil
}
