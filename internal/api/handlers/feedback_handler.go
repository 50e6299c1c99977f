package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/pkg/feedback"
)

type (
	FeedbackHandler interface {
		SubmitFeedback(c *fiber.Ctx) error
	}

	feedbackHandler struct {
		feedbackService feedback.FeedbackService
		validator       *validator.Validate
	}
)

func NewFeedbackHandler(feedbackService feedback.FeedbackService, validator *validator.Validate) FeedbackHandler {
	return &feedbackHandler{
		feedbackService: feedbackService,
		validator:       validator,
	}
}

// SubmitFeedback accepts JSON or multipart form data. Only the multipart
// form can carry a screenshot.
func (h *feedbackHandler) SubmitFeedback(c *fiber.Ctx) error {
	req := new(domain.SubmitFeedbackRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	// screenshot is optional
	req.Screenshot, _ = c.FormFile("screenshot")

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitFeedback, err)
	}

	res, err := h.feedbackService.SubmitFeedback(c.UserContext(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedSubmitFeedback, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessSubmitFeedback)
}
