package migration

import (
	"fmt"

	"gorm.io/gorm"

	"leaflens/entities"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.User{}, &entities.ResetToken{}); err != nil {
		return fmt.Errorf("migrate user tables: %w", err)
	}
	if err := db.AutoMigrate(&entities.History{}); err != nil {
		return fmt.Errorf("migrate history table: %w", err)
	}
	if err := db.AutoMigrate(&entities.Feedback{}); err != nil {
		return fmt.Errorf("migrate feedback table: %w", err)
	}
	return nil
}
