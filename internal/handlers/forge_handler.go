package handlers

import (
	"strings"

	"github.com/codeWithMuze/Prompteon/internal/dto"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
)

type ForgeHandler struct {
	forgeService *services.ForgeService
}

func NewForgeHandler(forgeService *services.ForgeService) *ForgeHandler {
	return &ForgeHandler{forgeService: forgeService}
}

// credential prefers a bearer token and falls back to the access cookie.
func credential(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Cookies(session.AccessCookie)
}

func (h *ForgeHandler) Generate(c *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.GenerateResponse{Error: "Invalid request body"})
	}

	ctx := c.UserContext()
	caller := h.forgeService.ResolveCaller(ctx, credential(c))

	analysis, err := h.forgeService.Generate(ctx, caller, req.Prompt, req.Mode)
	if err != nil {
		status, msg := statusFor(err)
		report(c, status, err)
		return c.Status(status).JSON(dto.GenerateResponse{Error: msg})
	}
	return c.JSON(dto.GenerateResponse{Success: true, Data: analysis})
}
