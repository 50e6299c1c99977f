package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leaflens/domain"
	"leaflens/entities"
)

type (
	HistoryRepository interface {
		// GetHistory reports found=false when the user has never saved.
		GetHistory(ctx context.Context, email string) (entries []domain.HistoryEntry, found bool, err error)
		SaveHistory(ctx context.Context, email string, entries []domain.HistoryEntry) error
		DeleteHistory(ctx context.Context, email string) error
	}

	historyRepository struct {
		db *gorm.DB
	}
)

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) GetHistory(ctx context.Context, email string) ([]domain.HistoryEntry, bool, error) {
	var record entities.History
	if err := r.db.WithContext(ctx).Where("user_email = ?", email).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entries []domain.HistoryEntry
	if len(record.Entries) > 0 {
		if err := json.Unmarshal(record.Entries, &entries); err != nil {
			return nil, true, err
		}
	}
	return entries, true, nil
}

// SaveHistory replaces the user's whole collection in one statement.
func (r *historyRepository) SaveHistory(ctx context.Context, email string, entries []domain.HistoryEntry) error {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	now := time.Now()
	record := &entities.History{
		ID:        uuid.New(),
		UserEmail: email,
		Entries:   datatypes.JSON(payload),
		Timestamp: entities.Timestamp{CreatedAt: now, UpdatedAt: now},
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"entries", "updated_at"}),
	}).Create(record).Error
}

func (r *historyRepository) DeleteHistory(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("user_email = ?", email).Delete(&entities.History{}).Error
}
