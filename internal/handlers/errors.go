package handlers

import (
	"errors"
	"log/slog"

	"github.com/codeWithMuze/Prompteon/internal/dto"
	"github.com/codeWithMuze/Prompteon/internal/history"
	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Message
	case services.IsCodeError(err):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, services.ErrInvalidSession):
		return fiber.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, session.ErrNoSession):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrUsageExceeded):
		return fiber.StatusForbidden, err.Error()
	case errors.Is(err, identity.ErrUserNotFound):
		return fiber.StatusNotFound, "User not found"
	case errors.Is(err, history.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, identity.ErrEmailTaken):
		return fiber.StatusConflict, "Email already registered"
	case errors.Is(err, services.ErrRateLimited):
		return fiber.StatusTooManyRequests, err.Error()
	case errors.Is(err, services.ErrSMSFailed), errors.Is(err, services.ErrEmailFailed), errors.Is(err, services.ErrForgeFailed):
		return fiber.StatusInternalServerError, err.Error()
	case errors.Is(err, services.ErrUsageUnavailable):
		return fiber.StatusServiceUnavailable, "Credit verification service unavailable."
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// report logs server-side failures and forwards them to the request's Sentry hub.
func report(c *fiber.Ctx, status int, err error) {
	if status < fiber.StatusInternalServerError {
		return
	}
	slog.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", c.Locals("requestid"),
		"error", err,
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	report(c, status, err)
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg})
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
}

// ErrorHandler is the Fiber fallback for errors returned by middleware or
// handlers. Details are exposed for 4xx only.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		report(c, code, err)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
