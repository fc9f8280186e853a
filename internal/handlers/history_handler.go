package handlers

import (
	"github.com/codeWithMuze/Prompteon/internal/dto"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type HistoryHandler struct {
	historyService *services.HistoryService
}

func NewHistoryHandler(historyService *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func toHistoryItem(p models.Prompt) dto.HistoryItem {
	return dto.HistoryItem{
		ID:             p.ID,
		OriginalPrompt: p.OriginalPrompt,
		ImprovedPrompt: p.ImprovedPrompt,
		Score:          p.Score,
		ScoreBreakdown: []byte(p.ScoreBreakdown),
		Model:          p.Model,
		DurationMs:     p.DurationMs,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
	}
}

func (h *HistoryHandler) Recent(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return respondError(c, err)
	}

	rows, err := h.historyService.Recent(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	items := make([]dto.HistoryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, toHistoryItem(r))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *HistoryHandler) Save(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SaveHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	_, err = h.historyService.Save(c.UserContext(), userID, services.SaveHistoryInput{
		OriginalPrompt: req.OriginalPrompt,
		ImprovedPrompt: req.ImprovedPrompt,
		Score:          req.Score,
		ScoreBreakdown: req.ScoreBreakdown,
		Model:          req.Model,
		DurationMs:     req.DurationMs,
		Status:         req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return respondError(c, err)
	}
	promptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid id"})
	}

	if err := h.historyService.Delete(c.UserContext(), userID, promptID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
