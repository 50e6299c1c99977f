package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/internal/middleware"
	"leaflens/pkg/user"
)

type (
	UserHandler interface {
		Register(c *fiber.Ctx) error
		Login(c *fiber.Ctx) error
		Me(c *fiber.Ctx) error
		UpdateProfile(c *fiber.Ctx) error
		ChangePassword(c *fiber.Ctx) error
		UpdateSettings(c *fiber.Ctx) error
		DeleteAccount(c *fiber.Ctx) error
		RequestReset(c *fiber.Ctx) error
		ValidateToken(c *fiber.Ctx) error
		ResetPassword(c *fiber.Ctx) error
	}

	userHandler struct {
		userService user.UserService
		validator   *validator.Validate
	}
)

func NewUserHandler(userService user.UserService, validator *validator.Validate) UserHandler {
	return &userHandler{
		userService: userService,
		validator:   validator,
	}
}

// parse decodes and validates the request body into req.
func (h *userHandler) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return err
	}
	return h.validator.Struct(req)
}

func (h *userHandler) Register(c *fiber.Ctx) error {
	req := new(domain.RegisterRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegister, err)
	}

	res, err := h.userService.Register(c.UserContext(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedRegister, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessRegister)
}

func (h *userHandler) Login(c *fiber.Ctx) error {
	req := new(domain.LoginRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLogin, err)
	}

	res, err := h.userService.Login(c.UserContext(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedLogin, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLogin)
}

func (h *userHandler) Me(c *fiber.Ctx) error {
	res, err := h.userService.Me(c.UserContext(), middleware.UserEmail(c))
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedGetDetailUser, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetDetailUser)
}

func (h *userHandler) UpdateProfile(c *fiber.Ctx) error {
	req := new(domain.UpdateProfileRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateUser, err)
	}

	res, err := h.userService.UpdateProfile(c.UserContext(), middleware.UserEmail(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedUpdateUser, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateUser)
}

func (h *userHandler) ChangePassword(c *fiber.Ctx) error {
	req := new(domain.ChangePasswordRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedChangePassword, err)
	}

	if err := h.userService.ChangePassword(c.UserContext(), middleware.UserEmail(c), *req); err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedChangePassword, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessChangePassword)
}

func (h *userHandler) UpdateSettings(c *fiber.Ctx) error {
	req := new(domain.UpdateSettingsRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateSettings, err)
	}

	res, err := h.userService.UpdateSettings(c.UserContext(), middleware.UserEmail(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedUpdateSettings, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateSettings)
}

func (h *userHandler) DeleteAccount(c *fiber.Ctx) error {
	req := new(domain.DeleteAccountRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteAccount, err)
	}

	if err := h.userService.DeleteAccount(c.UserContext(), middleware.UserEmail(c), *req); err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedDeleteAccount, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteAccount)
}

func (h *userHandler) RequestReset(c *fiber.Ctx) error {
	req := new(domain.RequestResetRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRequestReset, err)
	}

	if err := h.userService.RequestPasswordReset(c.UserContext(), *req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedRequestReset, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRequestReset)
}

func (h *userHandler) ValidateToken(c *fiber.Ctx) error {
	req := new(domain.ValidateTokenRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedValidateToken, err)
	}

	if err := h.userService.ValidateResetToken(c.UserContext(), req.Token); err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedValidateToken, err)
	}
	return presenters.SuccessResponse(c, fiber.Map{"valid": true}, fiber.StatusOK, domain.MessageSuccessValidateToken)
}

func (h *userHandler) ResetPassword(c *fiber.Ctx) error {
	req := new(domain.ResetPasswordRequest)
	if err := h.parse(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResetPassword, err)
	}

	if err := h.userService.ResetPassword(c.UserContext(), *req); err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedResetPassword, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessResetPassword)
}
