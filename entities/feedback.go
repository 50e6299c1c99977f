package entities

import (
	"github.com/google/uuid"
)

type Feedback struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `json:"name"`
	Email        string    `gorm:"index" json:"email,omitempty"`
	FeedbackType string    `json:"feedback_type"`
	FeedbackText string    `gorm:"not null" json:"feedback_text"`
	Rating       int       `json:"rating"`
	Screenshot   string    `json:"screenshot,omitempty"`
	Status       string    `json:"status"`

	Timestamp
}
