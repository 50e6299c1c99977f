package domain

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
)

var (
	MessageSuccessSubmitFeedback = "feedback submitted successfully"
	MessageSuccessListFeedback   = "feedback retrieved successfully"
	MessageFailedSubmitFeedback  = "failed to submit feedback"
	MessageFailedListFeedback    = "failed to retrieve feedback"

	ErrFeedbackTextRequired = fmt.Errorf("feedback text is required: %w", ErrInvalidInput)
)

const (
	FeedbackDefaultName   = "Anonymous"
	FeedbackDefaultType   = "general"
	FeedbackStatusNew     = "new"
	FeedbackScreenshotTag = "feedback_"
)

type (
	// Rating accepts a number or numeric string; anything else reads as zero.
	Rating int

	SubmitFeedbackRequest struct {
		Name         string                `json:"name" form:"name" validate:"max=128"`
		Email        string                `json:"email" form:"email" validate:"omitempty,email"`
		FeedbackType string                `json:"feedbackType" form:"feedbackType" validate:"max=64"`
		FeedbackText string                `json:"feedbackText" form:"feedbackText"`
		Rating       Rating                `json:"rating" form:"rating"`
		Screenshot   *multipart.FileHeader `json:"-" form:"-"`
	}

	FeedbackResponse struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		Email         string    `json:"email,omitempty"`
		FeedbackType  string    `json:"feedbackType"`
		FeedbackText  string    `json:"feedbackText"`
		Rating        int       `json:"rating"`
		ScreenshotURL string    `json:"screenshotUrl,omitempty"`
		Status        string    `json:"status"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

func (r *Rating) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(strings.TrimSpace(string(text)))
	if err != nil {
		n = 0
	}
	*r = Rating(n)
	return nil
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	return r.UnmarshalText([]byte(strings.Trim(string(data), `"`)))
}
