package entities

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username string         `gorm:"not null" json:"username"`
	Email    string         `gorm:"uniqueIndex;not null" json:"email"`
	Password string         `gorm:"not null" json:"-"`
	IsAdmin  bool           `gorm:"default:false" json:"is_admin"`
	Settings datatypes.JSON `json:"settings,omitempty"`

	Timestamp
}

// ResetToken is a single-use password reset grant. Only the SHA-256 digest
// of the token handed to the user is stored.
type ResetToken struct {
	TokenHash string `gorm:"primaryKey;size:64"`
	Email     string `gorm:"index;not null"`
	ExpiresAt int64  `gorm:"not null"`

	Timestamp
}
