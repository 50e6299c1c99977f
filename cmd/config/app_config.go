package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/liushuangls/go-anthropic/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leaflens/internal/api/handlers"
	"leaflens/internal/api/routes"
	"leaflens/internal/metrics"
	"leaflens/internal/middleware"
	"leaflens/internal/utils"
	"leaflens/internal/utils/mailing"
	"leaflens/internal/utils/storage"
	"leaflens/pkg/classifier"
	"leaflens/pkg/feedback"
	"leaflens/pkg/history"
	"leaflens/pkg/identify"
	"leaflens/pkg/jwt"
	"leaflens/pkg/narrate"
	"leaflens/pkg/plant"
	"leaflens/pkg/translate"
	"leaflens/pkg/user"
)

const (
	bodyLimit         = 16 << 20
	classifierTimeout = 60 * time.Second
)

// NewApp wires repositories, services and handlers onto a fiber app. hub may
// be nil when error reporting is disabled.
func NewApp(ctx context.Context, db *gorm.DB, log *zap.Logger, hub *sentry.Hub) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		AppName:           "LeafLens",
		BodyLimit:         bodyLimit,
		EnablePrintRoutes: utils.GetConfig("LOG_LEVEL") == "debug",
	})
	middlewares := middleware.NewMiddleware(utils.GetConfig("CORS_ORIGINS"), log)
	validator := utils.Validate

	app.Use(recover.New())
	app.Use(middlewares.ErrorReporter(hub))

	// setting up access logging and limiter
	if err := os.MkdirAll("./logs", os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating logs directory: %w", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	// adapters
	external := time.Duration(utils.GetConfigInt("EXTERNAL_TIMEOUT_SECONDS", 15)) * time.Second

	store, err := newImageStore(ctx)
	if err != nil {
		return nil, err
	}
	kb, err := plant.LoadKnowledgeBase(utils.GetConfig("KNOWLEDGE_BASE_PATH"))
	if err != nil {
		return nil, err
	}
	clf, err := newClassifier()
	if err != nil {
		return nil, err
	}
	translator, synth := newLanguageBackends()
	notifier, err := newNotifier()
	if err != nil {
		return nil, err
	}
	log.Info("adapters configured",
		zap.String("classifier", clf.Name()),
		zap.String("image_store", utils.GetConfig("IMAGE_STORE")),
		zap.String("translator", utils.GetConfig("TRANSLATOR")),
		zap.String("tts", utils.GetConfig("TTS")),
		zap.Int("plants", len(kb.Labels())))

	// Repository
	userRepository := user.NewUserRepository(db)
	historyRepository := history.NewHistoryRepository(db)
	feedbackRepository := feedback.NewFeedbackRepository(db)

	// Service
	jwtService := jwt.NewJWTService(jwtSecret(log))
	localizationService := translate.NewLocalizationService(translator, translate.Options{
		Timeout:        external,
		RequestsPerSec: float64(utils.GetConfigInt("TRANSLATE_RPS", 5)),
	}, m, log)
	narrationService := narrate.NewNarrationService(synth, external, m, log)
	identifyService := identify.NewIdentifyService(store, clf, kb, localizationService, narrationService, classifierTimeout, m, log)
	historyService := history.NewHistoryService(historyRepository, store, m, log)
	feedbackService := feedback.NewFeedbackService(feedbackRepository, store, notifier, log)
	userService := user.NewUserService(
		userRepository,
		jwtService,
		historyService,
		feedbackService,
		mailing.NewMailer(mailing.LoadMailConfig(), log),
		user.Options{
			AppURL:     utils.GetConfig("APP_URL"),
			AdminEmail: utils.GetConfig("ADMIN_EMAIL"),
		},
		log,
	)
	if err := userService.SeedAdmin(ctx, utils.GetConfig("ADMIN_EMAIL"), utils.GetConfig("ADMIN_PASSWORD")); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	// Handler
	identifyHandler := handlers.NewIdentifyHandler(identifyService, validator)
	historyHandler := handlers.NewHistoryHandler(historyService, validator)
	userHandler := handlers.NewUserHandler(userService, validator)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, validator)
	adminHandler := handlers.NewAdminHandler(userService, feedbackService, validator)

	// routes
	routesConfig := routes.Config{
		App:             app,
		IdentifyHandler: identifyHandler,
		HistoryHandler:  historyHandler,
		UserHandler:     userHandler,
		FeedbackHandler: feedbackHandler,
		AdminHandler:    adminHandler,
		Middleware:      middlewares,
		JWTService:      jwtService,
		MetricsHandler:  adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})),
	}
	if utils.GetConfig("IMAGE_STORE") != "s3" {
		routesConfig.UploadDir = utils.GetConfig("UPLOAD_DIR")
	}
	routesConfig.Setup()
	return app, nil
}

func newImageStore(ctx context.Context) (storage.ImageStore, error) {
	switch utils.GetConfig("IMAGE_STORE") {
	case "s3":
		return storage.NewAwsS3(ctx,
			utils.GetConfig("AWS_S3_BUCKET"),
			utils.GetConfig("AWS_S3_REGION"),
			utils.GetConfig("AWS_ACCESS_KEY"),
			utils.GetConfig("AWS_SECRET_KEY"),
		)
	case "local":
		return storage.NewLocalStorage(utils.GetConfig("UPLOAD_DIR"), utils.GetConfig("PUBLIC_URL"))
	default:
		return nil, fmt.Errorf("unknown IMAGE_STORE %q", utils.GetConfig("IMAGE_STORE"))
	}
}

func newClassifier() (classifier.Classifier, error) {
	switch utils.GetConfig("CLASSIFIER") {
	case "mock":
		return classifier.NewMockClassifier(nil), nil
	case "http":
		url := utils.GetConfig("AI_MODEL_URL")
		if url == "" {
			return nil, fmt.Errorf("CLASSIFIER=http requires AI_MODEL_URL")
		}
		return classifier.NewHTTPClassifier(url, &http.Client{Timeout: classifierTimeout}), nil
	case "anthropic":
		key := utils.GetConfig("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("CLASSIFIER=anthropic requires ANTHROPIC_API_KEY")
		}
		return classifier.NewAnthropicClassifier(anthropic.NewClient(key), utils.GetConfig("ANTHROPIC_MODEL")), nil
	default:
		return nil, fmt.Errorf("unknown CLASSIFIER %q", utils.GetConfig("CLASSIFIER"))
	}
}

// newLanguageBackends returns nil adapters for anything not configured; the
// services then skip translation or narration.
func newLanguageBackends() (translate.Translator, narrate.Synthesizer) {
	var (
		translator translate.Translator
		synth      narrate.Synthesizer
		client     *openai.Client
	)
	openAI := func() *openai.Client {
		if client == nil {
			cfg := openai.DefaultConfig(utils.GetConfig("OPENAI_API_KEY"))
			if base := utils.GetConfig("OPENAI_BASE_URL"); base != "" {
				cfg.BaseURL = base
			}
			client = openai.NewClientWithConfig(cfg)
		}
		return client
	}

	if utils.GetConfig("TRANSLATOR") == "openai" {
		translator = translate.NewOpenAITranslator(openAI(), utils.GetConfig("OPENAI_MODEL"))
	}
	if utils.GetConfig("TTS") == "openai" {
		synth = narrate.NewOpenAISpeech(openAI(), utils.GetConfig("OPENAI_TTS_MODEL"), utils.GetConfig("OPENAI_TTS_VOICE"))
	}
	return translator, synth
}

func newNotifier() (feedback.Notifier, error) {
	raw := utils.GetConfig("FEEDBACK_NOTIFY_URL")
	if raw == "" {
		return nil, nil
	}
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	notifier, err := feedback.NewShoutrrrNotifier(10*time.Second, urls...)
	if err != nil {
		return nil, fmt.Errorf("invalid FEEDBACK_NOTIFY_URL: %w", err)
	}
	return notifier, nil
}

func jwtSecret(log *zap.Logger) string {
	if secret := utils.GetConfig("JWT_SECRET"); secret != "" {
		return secret
	}
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	log.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	return hex.EncodeToString(buf)
}
