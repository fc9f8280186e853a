package handlers

import (
	"github.com/codeWithMuze/Prompteon/internal/dto"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
)

const resetSentMessage = "If account exists, OTP sent."

type AuthHandler struct {
	authService *services.AuthService
	cookies     *session.Cookies
}

func NewAuthHandler(authService *services.AuthService, cookies *session.Cookies) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, pair, err := h.authService.Signup(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{User: dto.NewUserResponse(user)})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, pair, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(dto.AuthResponse{User: dto.NewUserResponse(user)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.cookies.Clear(c)
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(session.RefreshCookie)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "No refresh token"})
	}

	_, pair, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *AuthHandler) ForgotPasswordSend(c *fiber.Ctx) error {
	var req dto.ForgotPasswordSendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := h.authService.SendPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: resetSentMessage})
}

func (h *AuthHandler) ForgotPasswordReset(c *fiber.Ctx) error {
	var req dto.ForgotPasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.OTP, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password reset successfully"})
}
