package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"leaflens/domain"
	"leaflens/entities"
)

type (
	UserRepository interface {
		CreateUser(ctx context.Context, user entities.User) (entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (entities.User, error)
		CheckUserByEmail(ctx context.Context, email string) (bool, error)
		UpdateUser(ctx context.Context, user entities.User) (entities.User, error)
		DeleteUser(ctx context.Context, email string) error
		ListUsers(ctx context.Context) ([]entities.User, error)

		SaveResetToken(ctx context.Context, token entities.ResetToken) error
		GetResetToken(ctx context.Context, tokenHash string) (entities.ResetToken, error)
		// ConsumeResetToken deletes and returns the token. Of two concurrent
		// callers only one gets it back.
		ConsumeResetToken(ctx context.Context, tokenHash string) (entities.ResetToken, error)
		DeleteResetToken(ctx context.Context, tokenHash string) error
		DeleteResetTokensByEmail(ctx context.Context, email string) error
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user entities.User) (entities.User, error) {
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entities.User{}, domain.ErrEmailAlreadyExists
		}
		return entities.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domain.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return user, nil
}

func (r *userRepository) CheckUserByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user entities.User) (entities.User, error) {
	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		return entities.User{}, err
	}
	return user, nil
}

func (r *userRepository) DeleteUser(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Where("email = ?", email).Delete(&entities.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SaveResetToken(ctx context.Context, token entities.ResetToken) error {
	return r.db.WithContext(ctx).Create(&token).Error
}

func (r *userRepository) GetResetToken(ctx context.Context, tokenHash string) (entities.ResetToken, error) {
	var token entities.ResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ResetToken{}, domain.ErrResetTokenNotFound
		}
		return entities.ResetToken{}, err
	}
	return token, nil
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, tokenHash string) (entities.ResetToken, error) {
	var token entities.ResetToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrResetTokenNotFound
			}
			return err
		}
		res := tx.Where("token_hash = ?", tokenHash).Delete(&entities.ResetToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrResetTokenNotFound
		}
		return nil
	})
	if err != nil {
		return entities.ResetToken{}, err
	}
	return token, nil
}

func (r *userRepository) DeleteResetToken(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&entities.ResetToken{}).Error
}

func (r *userRepository) DeleteResetTokensByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&entities.ResetToken{}).Error
}
