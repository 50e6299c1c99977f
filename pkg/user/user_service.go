package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"leaflens/domain"
	"leaflens/entities"
	"leaflens/internal/utils/mailing"
	"leaflens/pkg/feedback"
	"leaflens/pkg/history"
	"leaflens/pkg/jwt"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, email string) (domain.UserResponse, error)
		UpdateProfile(ctx context.Context, email string, req domain.UpdateProfileRequest) (domain.UserResponse, error)
		ChangePassword(ctx context.Context, email string, req domain.ChangePasswordRequest) error
		UpdateSettings(ctx context.Context, email string, req domain.UpdateSettingsRequest) (domain.UserResponse, error)
		DeleteAccount(ctx context.Context, email string, req domain.DeleteAccountRequest) error

		RequestPasswordReset(ctx context.Context, req domain.RequestResetRequest) error
		ValidateResetToken(ctx context.Context, token string) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error

		ListUsers(ctx context.Context) ([]domain.UserResponse, error)
		SetAdmin(ctx context.Context, actorEmail string, req domain.UpdateUserRoleRequest) (domain.UserResponse, error)
		SeedAdmin(ctx context.Context, email, password string) error
	}

	Options struct {
		AppURL     string
		AdminEmail string
		BcryptCost int
	}

	userService struct {
		userRepository  UserRepository
		jwtService      jwt.JWTService
		historyService  history.HistoryService
		feedbackService feedback.FeedbackService
		mailer          mailing.Mailer
		opts            Options
		now             func() time.Time
		logger          *zap.Logger
	}
)

func NewUserService(
	userRepository UserRepository,
	jwtService jwt.JWTService,
	historyService history.HistoryService,
	feedbackService feedback.FeedbackService,
	mailer mailing.Mailer,
	opts Options,
	logger *zap.Logger,
) UserService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	opts.AdminEmail = normalizeEmail(opts.AdminEmail)
	return &userService{
		userRepository:  userRepository,
		jwtService:      jwtService,
		historyService:  historyService,
		feedbackService: feedbackService,
		mailer:          mailer,
		opts:            opts,
		now:             time.Now,
		logger:          logger.Named("user"),
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	email := normalizeEmail(req.Email)
	exists, err := s.userRepository.CheckUserByEmail(ctx, email)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if exists {
		return domain.UserResponse{}, domain.ErrEmailAlreadyExists
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return domain.UserResponse{}, err
	}

	created, err := s.userRepository.CreateUser(ctx, entities.User{
		ID:       uuid.New(),
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: hashed,
		IsAdmin:  email == s.opts.AdminEmail,
	})
	if err != nil {
		return domain.UserResponse{}, err
	}

	s.logger.Info("user registered", zap.String("user", email))
	return toUserResponse(created), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.authenticate(ctx, normalizeEmail(req.Email), req.Password)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	role := domain.RoleUser
	if user.IsAdmin {
		role = domain.RoleAdmin
	}
	token, err := s.jwtService.GenerateTokenUser(user.Email, role)
	if err != nil {
		return domain.LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.LoginResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, email string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, email string, req domain.UpdateProfileRequest) (domain.UserResponse, error) {
	user, err := s.authenticate(ctx, email, req.Password)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user.Username = strings.TrimSpace(req.Username)
	updated, err := s.userRepository.UpdateUser(ctx, user)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(updated), nil
}

func (s *userService) ChangePassword(ctx context.Context, email string, req domain.ChangePasswordRequest) error {
	user, err := s.authenticate(ctx, email, req.CurrentPassword)
	if err != nil {
		return err
	}
	if req.CurrentPassword == req.NewPassword {
		return domain.ErrPasswordUnchanged
	}

	hashed, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if _, err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user", email))
	return nil
}

func (s *userService) UpdateSettings(ctx context.Context, email string, req domain.UpdateSettingsRequest) (domain.UserResponse, error) {
	var settings map[string]any
	if err := json.Unmarshal(req.Settings, &settings); err != nil || settings == nil {
		return domain.UserResponse{}, fmt.Errorf("settings must be a JSON object: %w", domain.ErrInvalidInput)
	}

	user, err := s.authenticate(ctx, email, req.Password)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user.Settings = datatypes.JSON(req.Settings)
	updated, err := s.userRepository.UpdateUser(ctx, user)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(updated), nil
}

// DeleteAccount removes the user's history and its images, their feedback,
// any pending reset tokens and finally the account.
func (s *userService) DeleteAccount(ctx context.Context, email string, req domain.DeleteAccountRequest) error {
	if req.Confirmation != domain.DeleteConfirmation {
		return domain.ErrConfirmationMismatch
	}
	if s.opts.AdminEmail != "" && email == s.opts.AdminEmail {
		return domain.ErrAdminAccountProtected
	}
	if _, err := s.authenticate(ctx, email, req.Password); err != nil {
		return err
	}

	if err := s.historyService.DeleteAllForUser(ctx, email); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if err := s.feedbackService.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if err := s.userRepository.DeleteResetTokensByEmail(ctx, email); err != nil {
		return fmt.Errorf("delete reset tokens: %w", err)
	}
	if err := s.userRepository.DeleteUser(ctx, email); err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.String("user", email))
	return nil
}

// RequestPasswordReset never reveals whether the email is registered. Mail
// delivery problems are logged, not returned.
func (s *userService) RequestPasswordReset(ctx context.Context, req domain.RequestResetRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}

	// one outstanding token per user
	if err := s.userRepository.DeleteResetTokensByEmail(ctx, email); err != nil {
		return err
	}
	if err := s.userRepository.SaveResetToken(ctx, entities.ResetToken{
		TokenHash: hashToken(token),
		Email:     email,
		ExpiresAt: s.now().Add(domain.ResetTokenTTL).Unix(),
	}); err != nil {
		return err
	}

	link := mailing.ResetPasswordLink(s.opts.AppURL, token)
	if err := s.mailer.SendMail(email, "Reset your LeafLens password", mailing.ResetPasswordBody(user.Username, link)); err != nil {
		s.logger.Error("failed to send reset mail", zap.String("user", email), zap.Error(err))
	}
	return nil
}

func (s *userService) ValidateResetToken(ctx context.Context, token string) error {
	hash := hashToken(token)
	stored, err := s.userRepository.GetResetToken(ctx, hash)
	if err != nil {
		return err
	}
	if s.expired(stored) {
		if err := s.userRepository.DeleteResetToken(ctx, hash); err != nil {
			s.logger.Warn("failed to evict expired reset token", zap.Error(err))
		}
		return domain.ErrResetTokenExpired
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	stored, err := s.userRepository.ConsumeResetToken(ctx, hashToken(req.Token))
	if err != nil {
		return err
	}
	if s.expired(stored) {
		return domain.ErrResetTokenExpired
	}

	user, err := s.userRepository.GetUserByEmail(ctx, stored.Email)
	if err != nil {
		return err
	}
	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	if _, err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password reset", zap.String("user", user.Email))
	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.UserResponse, error) {
	users, err := s.userRepository.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

func (s *userService) SetAdmin(ctx context.Context, actorEmail string, req domain.UpdateUserRoleRequest) (domain.UserResponse, error) {
	target := normalizeEmail(req.Email)
	if target == normalizeEmail(actorEmail) {
		return domain.UserResponse{}, domain.ErrCannotDemoteYourself
	}

	user, err := s.userRepository.GetUserByEmail(ctx, target)
	if err != nil {
		return domain.UserResponse{}, err
	}
	user.IsAdmin = req.IsAdmin
	updated, err := s.userRepository.UpdateUser(ctx, user)
	if err != nil {
		return domain.UserResponse{}, err
	}

	s.logger.Info("user role changed",
		zap.String("by", actorEmail),
		zap.String("user", target),
		zap.Bool("admin", req.IsAdmin))
	return toUserResponse(updated), nil
}

// SeedAdmin makes sure the configured administrator exists. An empty email
// or password disables seeding.
func (s *userService) SeedAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	user, err := s.userRepository.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin {
			return nil
		}
		user.IsAdmin = true
		_, err = s.userRepository.UpdateUser(ctx, user)
		return err
	case !errors.Is(err, domain.ErrUserNotFound):
		return err
	}

	hashed, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.userRepository.CreateUser(ctx, entities.User{
		ID:       uuid.New(),
		Username: "admin",
		Email:    email,
		Password: hashed,
		IsAdmin:  true,
	})
	if err != nil {
		return err
	}
	s.logger.Info("admin account seeded", zap.String("user", email))
	return nil
}

// authenticate reports ErrAuthenticationFailed for both an unknown email and
// a wrong password.
func (s *userService) authenticate(ctx context.Context, email, password string) (entities.User, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return entities.User{}, domain.ErrAuthenticationFailed
		}
		return entities.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return entities.User{}, domain.ErrAuthenticationFailed
	}
	return user, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *userService) expired(token entities.ResetToken) bool {
	return s.now().Unix() >= token.ExpiresAt
}

func toUserResponse(u entities.User) domain.UserResponse {
	res := domain.UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
	if len(u.Settings) > 0 {
		res.Settings = json.RawMessage(u.Settings)
	}
	return res
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
