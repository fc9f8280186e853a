package handlers

import (
	"github.com/codeWithMuze/Prompteon/internal/dto"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SettingsHandler struct {
	accountService *services.AccountService
	cookies        *session.Cookies
}

func NewSettingsHandler(accountService *services.AccountService, cookies *session.Cookies) *SettingsHandler {
	return &SettingsHandler{accountService: accountService, cookies: cookies}
}

// caller returns the session user id and token version.
func caller(c *fiber.Ctx) (uuid.UUID, int, error) {
	claims, err := session.Claims(c)
	if err != nil {
		return uuid.Nil, 0, err
	}
	id, err := claims.Identity()
	if err != nil {
		return uuid.Nil, 0, session.ErrNoSession
	}
	return id, claims.TokenVersion, nil
}

func (h *SettingsHandler) Me(c *fiber.Ctx) error {
	userID, _, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.accountService.Me(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AuthResponse{User: dto.NewUserResponse(user)})
}

func (h *SettingsHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, version, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, pair, err := h.accountService.UpdateProfile(c.UserContext(), userID, version, req.Name, req.Email, req.Phone)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user), "message": "Profile updated successfully"})
}

func (h *SettingsHandler) SavePreferences(c *fiber.Ctx) error {
	userID, version, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var prefs models.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return badRequest(c)
	}

	user, pair, err := h.accountService.SavePreferences(c.UserContext(), userID, version, prefs)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user), "message": "Preferences saved"})
}

func (h *SettingsHandler) ChangePassword(c *fiber.Ctx) error {
	userID, _, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := h.accountService.ChangePassword(c.UserContext(), userID, req.Password, req.OTP); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated successfully"})
}

func (h *SettingsHandler) LogoutAll(c *fiber.Ctx) error {
	userID, _, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}

	_, pair, err := h.accountService.LogoutAll(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(dto.MessageResponse{Message: "Logged out of all other devices"})
}

func (h *SettingsHandler) SendEmailOTP(c *fiber.Ctx) error {
	userID, _, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}

	expiresAt, err := h.accountService.SendPasswordChangeCode(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OTPSentResponse{Message: "OTP sent to your email", ExpiresAt: expiresAt})
}

func (h *SettingsHandler) SendPhoneOTP(c *fiber.Ctx) error {
	userID, _, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.PhoneOTPSendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	expiresAt, err := h.accountService.SendPhoneCode(c.UserContext(), userID, req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OTPSentResponse{Message: "OTP sent successfully", ExpiresAt: expiresAt})
}

func (h *SettingsHandler) VerifyPhoneOTP(c *fiber.Ctx) error {
	userID, version, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.PhoneOTPVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	_, pair, err := h.accountService.VerifyPhone(c.UserContext(), userID, version, req.Phone, req.OTP)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(dto.MessageResponse{Message: "Phone verified successfully"})
}

func (h *SettingsHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, _, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.accountService.DeleteAccount(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}

	h.cookies.Clear(c)
	return c.JSON(dto.MessageResponse{Message: "Account scheduled for deletion"})
}
