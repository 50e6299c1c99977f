package middleware

import (
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/pkg/jwt"
)

func newApp(m Middleware, jwtService jwt.JWTService) *fiber.App {
	app := fiber.New()
	app.Get("/me", m.AuthMiddleware(jwtService), func(c *fiber.Ctx) error {
		return c.SendString(UserEmail(c))
	})
	app.Get("/admin", m.AuthMiddleware(jwtService), m.AdminMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := jwt.NewJWTService("secret")
	app := newApp(NewMiddleware("", zap.NewNop()), jwtService)

	userToken, err := jwtService.GenerateTokenUser("ana@example.com", domain.RoleUser)
	require.NoError(t, err)
	adminToken, err := jwtService.GenerateTokenUser("root@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"not bearer", "/me", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", fiber.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + userToken, fiber.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userToken, fiber.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + adminToken, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestErrorReporterCapturesServerErrors(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	app := fiber.New()
	app.Use(NewMiddleware("", zap.NewNop()).ErrorReporter(hub))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, "failed", errors.New("disk full"))
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, "failed", domain.ErrInvalidInput)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "/boom", events[0].Tags["route"])
}
