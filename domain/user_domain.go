package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

var (
	MessageSuccessRegister        = "user registered successfully"
	MessageSuccessLogin           = "login successful"
	MessageSuccessGetDetailUser   = "user retrieved successfully"
	MessageSuccessUpdateUser      = "profile updated successfully"
	MessageSuccessChangePassword  = "password changed successfully"
	MessageSuccessUpdateSettings  = "settings updated successfully"
	MessageSuccessDeleteAccount   = "account and associated data deleted successfully"
	MessageSuccessRequestReset    = "if the email exists, a reset link has been sent"
	MessageSuccessValidateToken   = "token is valid"
	MessageSuccessResetPassword   = "password has been reset successfully"
	MessageSuccessListUsers       = "users retrieved successfully"
	MessageSuccessUpdateUserRole  = "user role updated successfully"
	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetDetailUser    = "failed to retrieve user"
	MessageFailedUpdateUser       = "failed to update profile"
	MessageFailedChangePassword   = "failed to change password"
	MessageFailedUpdateSettings   = "failed to update settings"
	MessageFailedDeleteAccount    = "failed to delete account"
	MessageFailedRequestReset     = "failed to process reset request"
	MessageFailedValidateToken    = "invalid or expired token"
	MessageFailedResetPassword    = "failed to reset password"
	MessageFailedListUsers        = "failed to retrieve users"
	MessageFailedUpdateUserRole   = "failed to update user role"
	MessageFailedAdminRequired    = "admin access required"
	MessageFailedAuthHeaderAbsent = "authorization header missing"

	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailAlreadyExists    = fmt.Errorf("email %w", ErrConflict)
	ErrConfirmationMismatch  = fmt.Errorf("confirmation must be DELETE: %w", ErrInvalidInput)
	ErrPasswordUnchanged     = fmt.Errorf("new password must differ from the current one: %w", ErrInvalidInput)
	ErrResetTokenNotFound    = fmt.Errorf("reset token: %w", ErrTokenInvalid)
	ErrResetTokenExpired     = fmt.Errorf("reset token: %w", ErrTokenExpired)
	ErrCannotDemoteYourself  = fmt.Errorf("admins cannot change their own role: %w", ErrInvalidInput)
	ErrAdminAccountProtected = fmt.Errorf("the seeded admin account cannot be deleted: %w", ErrInvalidInput)
)

const (
	DeleteConfirmation = "DELETE"
	ResetTokenTTL      = time.Hour
)

type (
	RegisterRequest struct {
		Username string `json:"username" validate:"required,min=2,max=64"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}

	UserResponse struct {
		ID        string          `json:"id"`
		Username  string          `json:"username"`
		Email     string          `json:"email"`
		IsAdmin   bool            `json:"isAdmin"`
		Settings  json.RawMessage `json:"settings,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	UpdateProfileRequest struct {
		Username string `json:"username" validate:"required,min=2,max=64"`
		Password string `json:"password" validate:"required"`
	}

	ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6"`
	}

	UpdateSettingsRequest struct {
		Password string          `json:"password" validate:"required"`
		Settings json.RawMessage `json:"settings" validate:"required"`
	}

	DeleteAccountRequest struct {
		Password     string `json:"password" validate:"required"`
		Confirmation string `json:"confirmation" validate:"required"`
	}

	RequestResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ValidateTokenRequest struct {
		Token string `json:"token" validate:"required"`
	}

	ResetPasswordRequest struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}

	UpdateUserRoleRequest struct {
		Email   string `json:"email" validate:"required,email"`
		IsAdmin bool   `json:"isAdmin"`
	}
)
