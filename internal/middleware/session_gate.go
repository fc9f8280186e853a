package middleware

import (
	"log/slog"
	"path"
	"strings"

	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
)

var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".map": true, ".png": true, ".jpg": true,
	".jpeg": true, ".gif": true, ".svg": true, ".ico": true, ".webp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".txt": true,
}

func gateSkips(p string) bool {
	if strings.HasPrefix(p, "/api/auth/") || p == "/api/health" || p == "/health" || p == "/metrics" {
		return true
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

// SessionGate keeps sessions alive at the edge. A valid access cookie passes
// through. Otherwise a valid refresh cookie mints a new access token, which is
// set on the response and substituted into the current request. With neither,
// the request continues unauthenticated.
func SessionGate(tokens *services.TokenService, cookies *session.Cookies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if gateSkips(c.Path()) {
			return c.Next()
		}

		if claims, ok := tokens.Verify(c.Cookies(session.AccessCookie)); ok && claims.Type == services.TokenTypeAccess {
			return c.Next()
		}

		refresh, ok := tokens.Verify(c.Cookies(session.RefreshCookie))
		if !ok || refresh.Type != services.TokenTypeRefresh || refresh.Subject == "" {
			return c.Next()
		}

		access, err := tokens.Issue(services.Claims{
			UserID:       refresh.Subject,
			TokenVersion: refresh.TokenVersion,
			Type:         services.TokenTypeAccess,
		}, tokens.AccessTTL())
		if err != nil {
			slog.Error("session gate: failed to mint access token", "user_id", refresh.Subject, "error", err)
			return c.Next()
		}

		cookies.SetAccess(c, access)
		c.Request().Header.SetCookie(session.AccessCookie, access)
		return c.Next()
	}
}
