package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"leaflens/domain"
)

// errorStatus maps the domain error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenExpired):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
