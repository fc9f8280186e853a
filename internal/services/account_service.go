package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/metrics"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/codeWithMuze/Prompteon/internal/notify"
	"github.com/codeWithMuze/Prompteon/internal/ratelimit"
	"github.com/google/uuid"
)

// AccountService backs the authenticated settings surface.
type AccountService struct {
	dir     identity.Directory
	tokens  *TokenService
	otp     *OTPService
	limiter ratelimit.Counter
	email   notify.EmailSender
	sms     notify.SMSSender
}

func NewAccountService(
	dir identity.Directory,
	tokens *TokenService,
	otp *OTPService,
	limiter ratelimit.Counter,
	email notify.EmailSender,
	sms notify.SMSSender,
) *AccountService {
	return &AccountService{dir: dir, tokens: tokens, otp: otp, limiter: limiter, email: email, sms: sms}
}

// reissue signs a pair for u at the caller's session version so that a
// revoked session is not revived by a profile change.
func (s *AccountService) reissue(u *models.User, version int) (*TokenPair, error) {
	snapshot := *u
	snapshot.TokenVersion = version
	return s.tokens.IssuePair(&snapshot)
}

func (s *AccountService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.dir.GetUser(ctx, userID)
}

// UpdateProfile sets name and email. A new phone number is stored unverified.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, version int, name, email, phone string) (*models.User, *TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if name == "" || email == "" {
		return nil, nil, invalid("Name and email are required")
	}

	current, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ch := identity.Changes{Name: &name}
	if identity.NormalizeEmail(email) != current.Email {
		ch.Email = &email
	}
	if phone != "" && phone != current.Phone {
		unverified := false
		ch.Phone = &phone
		ch.PhoneVerified = &unverified
	}

	user, err := s.dir.UpdateUser(ctx, userID, ch)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.reissue(user, version)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AccountService) SavePreferences(ctx context.Context, userID uuid.UUID, version int, prefs models.Preferences) (*models.User, *TokenPair, error) {
	user, err := s.dir.UpdateUser(ctx, userID, identity.Changes{Preferences: &prefs})
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.reissue(user, version)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AccountService) allow(ctx context.Context, key string) error {
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if !ok {
		metrics.RateLimited.WithLabelValues(strings.Split(key, ":")[1]).Inc()
		return ErrRateLimited
	}
	return nil
}

// SendPhoneCode texts a verification code for phone. The code stays valid
// when dispatch fails so the caller can retry delivery with a resend.
func (s *AccountService) SendPhoneCode(ctx context.Context, userID uuid.UUID, phone string) (time.Time, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return time.Time{}, invalid("Phone number is required")
	}
	if err := s.allow(ctx, "otp:phone:"+userID.String()); err != nil {
		return time.Time{}, err
	}

	pending, err := s.otp.Issue(ctx, userID, identity.PurposePhone, phone, PhoneCodeTTL)
	if err != nil {
		return time.Time{}, err
	}

	body := fmt.Sprintf("Your Prompteon authentication code is %s. Do not share this code with anyone.", pending.Code)
	err = s.sms.Send(ctx, phone, body)
	metrics.ObserveDispatch("sms", err)
	if err != nil {
		slog.Error("phone code dispatch failed", "user_id", userID, "action", "otp_send", "error", err)
		return time.Time{}, ErrSMSFailed
	}
	return pending.ExpiresAt, nil
}

// VerifyPhone confirms phone and clears the code in one update.
func (s *AccountService) VerifyPhone(ctx context.Context, userID uuid.UUID, version int, phone, code string) (*models.User, *TokenPair, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || code == "" {
		return nil, nil, invalid("Phone and OTP are required")
	}
	if err := s.otp.Check(ctx, userID, identity.PurposePhone, code, phone); err != nil {
		return nil, nil, err
	}

	verified := true
	user, err := s.dir.UpdateUser(ctx, userID, identity.Changes{
		Phone:         &phone,
		PhoneVerified: &verified,
		Consume:       s.otp.Use(identity.PurposePhone, code),
	})
	if err != nil {
		return nil, nil, spent(identity.PurposePhone, err)
	}
	pair, err := s.reissue(user, version)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("phone verified", "user_id", userID, "action", "otp_verify")
	return user, pair, nil
}

// SendPasswordChangeCode emails a confirmation code to the account address.
func (s *AccountService) SendPasswordChangeCode(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	if err := s.allow(ctx, "otp:email:"+userID.String()); err != nil {
		return time.Time{}, err
	}

	user, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	pending, err := s.otp.Issue(ctx, userID, identity.PurposeEmailConfirm, user.Email, ConfirmCodeTTL)
	if err != nil {
		return time.Time{}, err
	}

	body := fmt.Sprintf("Your verification code is %s. Use this to confirm your password change requests. Do not share this code.", pending.Code)
	err = s.email.Send(ctx, user.Email, "Verify Password Change - Prompteon", body)
	metrics.ObserveDispatch("email", err)
	if err != nil {
		slog.Error("password change code dispatch failed", "user_id", userID, "action", "email_otp_send", "error", err)
		return time.Time{}, ErrEmailFailed
	}
	return pending.ExpiresAt, nil
}

// ChangePassword sets password after checking the emailed confirmation code.
func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, password, code string) error {
	if len(password) < MinPasswordLength {
		return invalid("Password must be at least 6 characters")
	}
	if code == "" {
		return invalid("OTP is required")
	}
	if err := s.otp.Check(ctx, userID, identity.PurposeEmailConfirm, code, ""); err != nil {
		return err
	}

	if _, err := s.dir.UpdateUser(ctx, userID, identity.Changes{
		Password: &password,
		Consume:  s.otp.Use(identity.PurposeEmailConfirm, code),
	}); err != nil {
		return spent(identity.PurposeEmailConfirm, err)
	}
	slog.Info("password changed", "user_id", userID, "action", "change_password")
	return nil
}

// LogoutAll bumps the token version, invalidating every other refresh token,
// and returns a pair for the current device at the new version.
func (s *AccountService) LogoutAll(ctx context.Context, userID uuid.UUID) (*models.User, *TokenPair, error) {
	version, err := s.dir.IncrementTokenVersion(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.reissue(user, version)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("logged out other devices", "user_id", userID, "action", "logout_all", "token_version", version)
	return user, pair, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.dir.SoftDelete(ctx, userID); err != nil {
		return err
	}
	slog.Info("account scheduled for deletion", "user_id", userID, "action", "delete_account")
	return nil
}
