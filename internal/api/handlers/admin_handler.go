package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/internal/middleware"
	"leaflens/pkg/feedback"
	"leaflens/pkg/user"
)

type (
	AdminHandler interface {
		ListUsers(c *fiber.Ctx) error
		UpdateUserRole(c *fiber.Ctx) error
		ListFeedback(c *fiber.Ctx) error
	}

	adminHandler struct {
		userService     user.UserService
		feedbackService feedback.FeedbackService
		validator       *validator.Validate
	}
)

func NewAdminHandler(userService user.UserService, feedbackService feedback.FeedbackService, validator *validator.Validate) AdminHandler {
	return &adminHandler{
		userService:     userService,
		feedbackService: feedbackService,
		validator:       validator,
	}
}

func (h *adminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedListUsers, err)
	}
	return presenters.SuccessResponse(c, fiber.Map{"users": users}, fiber.StatusOK, domain.MessageSuccessListUsers)
}

func (h *adminHandler) UpdateUserRole(c *fiber.Ctx) error {
	req := new(domain.UpdateUserRoleRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateUserRole, err)
	}

	res, err := h.userService.SetAdmin(c.UserContext(), middleware.UserEmail(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedUpdateUserRole, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateUserRole)
}

func (h *adminHandler) ListFeedback(c *fiber.Ctx) error {
	items, err := h.feedbackService.ListFeedback(c.UserContext())
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedListFeedback, err)
	}
	return presenters.SuccessResponse(c, fiber.Map{"feedback": items}, fiber.StatusOK, domain.MessageSuccessListFeedback)
}
