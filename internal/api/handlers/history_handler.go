package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/internal/middleware"
	"leaflens/pkg/history"
)

type (
	HistoryHandler interface {
		SaveHistory(c *fiber.Ctx) error
		GetHistory(c *fiber.Ctx) error
		DeleteHistoryEntry(c *fiber.Ctx) error
		ClearHistory(c *fiber.Ctx) error
	}

	historyHandler struct {
		historyService history.HistoryService
		validator      *validator.Validate
	}
)

func NewHistoryHandler(historyService history.HistoryService, validator *validator.Validate) HistoryHandler {
	return &historyHandler{
		historyService: historyService,
		validator:      validator,
	}
}

func (h *historyHandler) SaveHistory(c *fiber.Ctx) error {
	email := middleware.UserEmail(c)

	req := new(domain.SaveHistoryRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSaveHistory, err)
	}

	entries, err := h.historyService.Save(c.UserContext(), email, req.Entry())
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedSaveHistory, err)
	}
	return presenters.SuccessResponse(c, domain.HistoryResponse{History: entries}, fiber.StatusOK, domain.MessageSuccessSaveHistory)
}

func (h *historyHandler) GetHistory(c *fiber.Ctx) error {
	entries, err := h.historyService.Get(c.UserContext(), middleware.UserEmail(c))
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedGetHistory, err)
	}
	return presenters.SuccessResponse(c, domain.HistoryResponse{History: entries}, fiber.StatusOK, domain.MessageSuccessGetHistory)
}

func (h *historyHandler) DeleteHistoryEntry(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteHistory, domain.ErrInvalidInput)
	}

	entries, err := h.historyService.DeleteEntry(c.UserContext(), middleware.UserEmail(c), id)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedDeleteHistory, err)
	}
	return presenters.SuccessResponse(c, domain.HistoryResponse{History: entries}, fiber.StatusOK, domain.MessageSuccessDeleteHistory)
}

func (h *historyHandler) ClearHistory(c *fiber.Ctx) error {
	if err := h.historyService.Clear(c.UserContext(), middleware.UserEmail(c)); err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedClearHistory, err)
	}
	return presenters.SuccessResponse(c, domain.HistoryResponse{History: []domain.HistoryEntry{}}, fiber.StatusOK, domain.MessageSuccessClearHistory)
}
