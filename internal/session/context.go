package session

import (
	"errors"

	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is where the JWT middleware stores the parsed token.
const ContextKey = "user"

var ErrNoSession = errors.New("no authenticated session")

// Claims returns the access-token claims set by the JWT middleware.
func Claims(c *fiber.Ctx) (*services.Claims, error) {
	token, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok {
		return nil, ErrNoSession
	}
	claims, ok := token.Claims.(*services.Claims)
	if !ok {
		return nil, ErrNoSession
	}
	return claims, nil
}

// UserID returns the authenticated user's id.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := Claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := claims.Identity()
	if err != nil {
		return uuid.Nil, ErrNoSession
	}
	return id, nil
}
