package entities

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// History holds a user's whole identification history as one document so a
// save replaces it in a single write.
type History struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserEmail string         `gorm:"uniqueIndex;not null" json:"user_email"`
	Entries   datatypes.JSON `gorm:"not null" json:"entries"`

	Timestamp
}
