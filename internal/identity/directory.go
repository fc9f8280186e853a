// Package identity is the user directory: credentials, profile fields, the
// revocation epoch and the pending one-time codes attached to each account.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoPendingCode      = errors.New("no pending code")
)

// Purpose names the flow a one-time code belongs to.
type Purpose string

const (
	PurposePasswordReset Purpose = "reset"
	PurposePhone         Purpose = "phone"
	PurposeEmailConfirm  Purpose = "email"
)

// PendingCode is a one-time code waiting to be verified.
type PendingCode struct {
	Purpose   Purpose
	Code      string
	Target    string
	ExpiresAt time.Time
}

type NewUser struct {
	Email    string
	Password string
	Name     string
}

// CodeUse spends a pending code inside an update. The update applies only if
// the stored code for Purpose still equals Code and has not expired at At;
// otherwise it fails with ErrNoPendingCode and nothing changes.
type CodeUse struct {
	Purpose Purpose
	Code    string
	At      time.Time
}

// Changes describes one atomic user update. Nil fields are left untouched.
type Changes struct {
	Name          *string
	Email         *string
	Phone         *string
	PhoneVerified *bool
	Password      *string
	Preferences   *models.Preferences
	Consume       *CodeUse
}

// IsEmpty reports whether applying c would change nothing.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Email == nil && c.Phone == nil && c.PhoneVerified == nil &&
		c.Password == nil && c.Preferences == nil && c.Consume == nil
}

// Directory is the identity provider the rest of the service talks to.
type Directory interface {
	CreateUser(ctx context.Context, u NewUser) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, ch Changes) (*models.User, error)
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error)
	PutCode(ctx context.Context, userID uuid.UUID, code PendingCode) error
	GetCode(ctx context.Context, userID uuid.UUID, purpose Purpose) (*PendingCode, error)
	DeleteCode(ctx context.Context, userID uuid.UUID, purpose Purpose) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
