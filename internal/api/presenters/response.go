package presenters

import (
	"github.com/gofiber/fiber/v2"
)

type (
	Response struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    any    `json:"data,omitempty"`
	}

	ErrorBody struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}
)

func SuccessResponse(c *fiber.Ctx, data any, status int, message string) error {
	return c.Status(status).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes the failure envelope. Server errors are stored on the
// context so the error reporter middleware can pick them up.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	body := ErrorBody{
		Status:  false,
		Message: message,
	}
	if err != nil {
		body.Error = err.Error()
		if status >= fiber.StatusInternalServerError {
			c.Locals(ServerErrorKey, err)
		}
	}
	return c.Status(status).JSON(body)
}

const ServerErrorKey = "server_error"
