package services

import (
	"fmt"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is shared by both token kinds. Access tokens carry the profile
// snapshot in UserID..Preferences, refresh tokens only Subject and the version.
type Claims struct {
	UserID        string              `json:"id,omitempty"`
	Email         string              `json:"email,omitempty"`
	Name          string              `json:"name,omitempty"`
	Plan          string              `json:"plan,omitempty"`
	Phone         string              `json:"phone,omitempty"`
	PhoneVerified bool                `json:"phone_verified,omitempty"`
	Preferences   *models.Preferences `json:"preferences,omitempty"`
	TokenVersion  int                 `json:"token_version"`
	Type          string              `json:"typ"`
	jwt.RegisteredClaims
}

// Identity returns the user id from whichever claim the token kind uses.
func (c *Claims) Identity() (uuid.UUID, error) {
	raw := c.UserID
	if raw == "" {
		raw = c.Subject
	}
	return uuid.Parse(raw)
}

type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue signs claims with HS256, stamping iat and exp from ttl.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the decoded claims, or false for a bad signature, a
// malformed token or an expired one.
func (s *TokenService) Verify(token string) (*Claims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}

// AccessClaims builds the access-token payload from the current user record.
func AccessClaims(u *models.User) Claims {
	prefs := u.Preferences.Data()
	return Claims{
		UserID:        u.ID.String(),
		Email:         u.Email,
		Name:          u.Name,
		Plan:          u.Plan,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		Preferences:   &prefs,
		TokenVersion:  u.TokenVersion,
		Type:          TokenTypeAccess,
	}
}

func RefreshClaims(userID uuid.UUID, version int) Claims {
	return Claims{
		TokenVersion:     version,
		Type:             TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IssuePair signs a fresh access and refresh token for u at u.TokenVersion.
func (s *TokenService) IssuePair(u *models.User) (*TokenPair, error) {
	access, err := s.Issue(AccessClaims(u), s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(RefreshClaims(u.ID, u.TokenVersion), s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
