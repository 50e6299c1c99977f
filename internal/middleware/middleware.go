package middleware

import (
	"errors"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/pkg/jwt"
)

const (
	LocalsUserEmail = "user_email"
	LocalsRole      = "role"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		AdminMiddleware() fiber.Handler
		ErrorReporter(hub *sentry.Hub) fiber.Handler
	}

	middleware struct {
		allowOrigins string
		logger       *zap.Logger
	}
)

// NewMiddleware builds the shared handlers. allowOrigins is a comma separated
// list, empty allows any origin.
func NewMiddleware(allowOrigins string, logger *zap.Logger) Middleware {
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	return &middleware{allowOrigins: allowOrigins, logger: logger.Named("http")}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: m.allowOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	})
}

func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedAuthHeaderAbsent, domain.ErrTokenNotFound)
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, domain.ErrTokenInvalid)
		}

		email, role, err := jwtService.GetUserByToken(token)
		if err != nil {
			message := domain.MessageFailedTokenInvalid
			if errors.Is(err, domain.ErrTokenExpired) {
				message = domain.MessageFailedTokenExpired
			}
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, message, err)
		}

		c.Locals(LocalsUserEmail, email)
		c.Locals(LocalsRole, role)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func (m *middleware) AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(LocalsRole).(string); role != domain.RoleAdmin {
			return presenters.ErrorResponse(c, fiber.StatusForbidden, domain.MessageFailedAdminRequired, domain.ErrUserNotAllowed)
		}
		return c.Next()
	}
}

// ErrorReporter logs server errors recorded by presenters.ErrorResponse and
// forwards them to Sentry when hub is not nil.
func (m *middleware) ErrorReporter(hub *sentry.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chainErr := c.Next()

		err, _ := c.Locals(presenters.ServerErrorKey).(error)
		if err == nil {
			err = chainErr
		}
		if err == nil {
			return nil
		}
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return chainErr
		}

		m.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Error(err))

		if hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("method", c.Method())
				scope.SetTag("route", c.Route().Path)
				hub.CaptureException(err)
			})
		}
		return chainErr
	}
}

// UserEmail returns the authenticated user's email set by AuthMiddleware.
func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalsUserEmail).(string)
	return email
}
