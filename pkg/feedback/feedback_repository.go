package feedback

import (
	"context"

	"gorm.io/gorm"

	"leaflens/entities"
)

type (
	FeedbackRepository interface {
		CreateFeedback(ctx context.Context, feedback entities.Feedback) (entities.Feedback, error)
		ListFeedback(ctx context.Context) ([]entities.Feedback, error)
		GetFeedbackByEmail(ctx context.Context, email string) ([]entities.Feedback, error)
		DeleteFeedbackByEmail(ctx context.Context, email string) error
	}

	feedbackRepository struct {
		db *gorm.DB
	}
)

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) CreateFeedback(ctx context.Context, feedback entities.Feedback) (entities.Feedback, error) {
	if err := r.db.WithContext(ctx).Create(&feedback).Error; err != nil {
		return entities.Feedback{}, err
	}
	return feedback, nil
}

func (r *feedbackRepository) ListFeedback(ctx context.Context) ([]entities.Feedback, error) {
	var feedback []entities.Feedback
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *feedbackRepository) GetFeedbackByEmail(ctx context.Context, email string) ([]entities.Feedback, error) {
	var feedback []entities.Feedback
	if err := r.db.WithContext(ctx).Where("email = ?", email).Find(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *feedbackRepository) DeleteFeedbackByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&entities.Feedback{}).Error
}
