package middleware

import (
	"errors"

	"github.com/codeWithMuze/Prompteon/internal/config"
	"github.com/codeWithMuze/Prompteon/internal/dto"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errWrongTokenType = errors.New("refresh token used as access token")

// JWTProtected requires a valid access token in the access_token cookie.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(cfg.JWTSecret)},
		TokenLookup: "cookie:" + session.AccessCookie,
		ContextKey:  session.ContextKey,
		Claims:      &services.Claims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			claims, err := session.Claims(c)
			if err != nil || claims.Type != services.TokenTypeAccess {
				return unauthorized(c, errWrongTokenType)
			}
			return c.Next()
		},
		ErrorHandler: unauthorized,
	})
}

func unauthorized(c *fiber.Ctx, _ error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: "Unauthorized",
	})
}
