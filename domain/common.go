package domain

import (
	"errors"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultLanguage = "en"
)

var (
	MessageFailedBodyRequest  = "failed to parse request body"
	MessageFailedTokenInvalid = "failed to token invalid"
	MessageFailedTokenExpired = "token expired"

	ErrUserNotAllowed = errors.New("user not allowed")
	ErrTokenNotFound  = errors.New("failed to token not found")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")

	// Taxonomy shared by every feature. Feature errors wrap one of these so
	// handlers can pick a status code with errors.Is.
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrConflict             = errors.New("already exists")
)
