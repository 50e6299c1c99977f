package routes

import (
	"github.com/gofiber/fiber/v2"

	"leaflens/internal/api/handlers"
	"leaflens/internal/middleware"
	"leaflens/pkg/jwt"
)

type Config struct {
	App             *fiber.App
	IdentifyHandler handlers.IdentifyHandler
	HistoryHandler  handlers.HistoryHandler
	UserHandler     handlers.UserHandler
	FeedbackHandler handlers.FeedbackHandler
	AdminHandler    handlers.AdminHandler
	Middleware      middleware.Middleware
	JWTService      jwt.JWTService

	// MetricsHandler serves /metrics when set.
	MetricsHandler fiber.Handler
	// UploadDir is served read-only under /uploads when set.
	UploadDir string
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Identify()
	c.Plants()
	c.History()
	c.User()
	c.Feedback()
	c.Admin()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	if c.MetricsHandler != nil {
		c.App.Get("/metrics", c.MetricsHandler)
	}
	if c.UploadDir != "" {
		c.App.Static("/uploads", c.UploadDir, fiber.Static{Browse: false})
	}
}

func (c *Config) Identify() {
	api := c.App.Group("/api/v1")
	api.Post("/identify", c.IdentifyHandler.Identify)
	api.Post("/translate", c.IdentifyHandler.Translate)
	api.Post("/tts", c.IdentifyHandler.TextToSpeech)
}

func (c *Config) Plants() {
	plants := c.App.Group("/api/v1/plants")
	plants.Get("/labels", c.IdentifyHandler.GetPlantLabels)
	plants.Post("/original", c.Middleware.AuthMiddleware(c.JWTService), c.IdentifyHandler.GetOriginalPlantInfo)
}

func (c *Config) History() {
	history := c.App.Group("/api/v1/history", c.Middleware.AuthMiddleware(c.JWTService))
	history.Post("", c.HistoryHandler.SaveHistory)
	history.Get("", c.HistoryHandler.GetHistory)
	history.Delete("", c.HistoryHandler.ClearHistory)
	history.Delete("/:id", c.HistoryHandler.DeleteHistoryEntry)
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// public
	{
		user.Post("/signup", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Post("/request-reset", c.UserHandler.RequestReset)
		user.Post("/validate-token", c.UserHandler.ValidateToken)
		user.Post("/reset-password", c.UserHandler.ResetPassword)
	}
	// authenticated
	{
		auth := c.Middleware.AuthMiddleware(c.JWTService)
		user.Get("/me", auth, c.UserHandler.Me)
		user.Patch("/profile", auth, c.UserHandler.UpdateProfile)
		user.Post("/change-password", auth, c.UserHandler.ChangePassword)
		user.Put("/settings", auth, c.UserHandler.UpdateSettings)
		user.Post("/delete", auth, c.UserHandler.DeleteAccount)
	}
}

func (c *Config) Feedback() {
	c.App.Post("/api/v1/feedback", c.FeedbackHandler.SubmitFeedback)
}

func (c *Config) Admin() {
	admin := c.App.Group("/api/v1/admin",
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.AdminMiddleware(),
	)
	admin.Get("/users", c.AdminHandler.ListUsers)
	admin.Post("/users/role", c.AdminHandler.UpdateUserRole)
	admin.Get("/feedback", c.AdminHandler.ListFeedback)
}
