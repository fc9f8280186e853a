// Package session manages the access/refresh cookie pair and exposes the
// authenticated claims to handlers.
package session

import (
	"time"

	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Cookies writes session cookies with the configured lifetimes.
type Cookies struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
}

func NewCookies(accessTTL, refreshTTL time.Duration, secure bool) *Cookies {
	return &Cookies{accessTTL: accessTTL, refreshTTL: refreshTTL, secure: secure}
}

func (m *Cookies) cookie(name, value string, maxAge time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func (m *Cookies) SetPair(c *fiber.Ctx, pair *services.TokenPair) {
	m.SetAccess(c, pair.AccessToken)
	c.Cookie(m.cookie(RefreshCookie, pair.RefreshToken, m.refreshTTL))
}

func (m *Cookies) SetAccess(c *fiber.Ctx, token string) {
	c.Cookie(m.cookie(AccessCookie, token, m.accessTTL))
}

// Clear expires both cookies.
func (m *Cookies) Clear(c *fiber.Ctx) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := m.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.Cookie(ck)
	}
}
