package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup(slog.LevelInfo)

	cfg := config.Load()
	level := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level)

	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		slog.Error("JWT_SECRET or JWKS_URL environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	subRepo := repository.NewSubscriptionRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)
	resumeRepo := repository.NewResumeRepository(database.DB)
	logRepo := repository.NewLogRepository(database.DB)

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(logRepo, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewStdoutHandler(level),
		pgLogHandler,
	)))

	// Background jobs
	jobsDone := make(chan struct{})
	logging.StartCleanup(logRepo, cfg.LogRetention, jobsDone)

	// Entitlements
	settingsStore := entitlement.NewSettingsStore(settingsRepo)
	if err := settingsStore.EnsureRow(context.Background()); err != nil {
		slog.Warn("could not seed settings, defaults stay in effect", "error", err)
	}
	resolver := entitlement.NewResolver(subRepo, settingsStore)
	meter := entitlement.NewMeter(resolver, entitlement.NewRecorder(subRepo))

	// Services
	userService := services.NewUserService(userRepo)
	subscriptionService := services.NewSubscriptionService(subRepo)
	llm := services.NewLLMClient(cfg.AITimeout,
		services.LLMProvider{Name: "glm", URL: cfg.GLMAPIURL, APIKey: cfg.GLMAPIKey, Model: cfg.GLMModel},
		services.LLMProvider{Name: "deepseek", URL: cfg.DeepSeekAPIURL, APIKey: cfg.DeepSeekAPIKey, Model: cfg.DeepSeekModel},
	)
	aiService := services.NewAIService(llm, meter)
	renderer := services.NewHTTPRenderer(cfg.PDFRendererURL, cfg.PDFRendererToken, cfg.PDFTimeout)

	var photos services.PhotoStorage
	if cfg.CloudinaryURL != "" {
		storage, err := services.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			slog.Error("cloudinary init failed", "error", err)
			os.Exit(1)
		}
		photos = storage
	} else {
		slog.Warn("CLOUDINARY_URL not set, photo upload disabled")
	}
	resumeService := services.NewResumeService(resumeRepo, meter, aiService, renderer, photos)

	subscriptionService.StartLifecycle(cfg.LifecycleInterval, jobsDone)

	// Handlers
	validate := entitlement.NewValidator()
	h := routes.Handlers{
		Health:       handlers.NewHealthHandler(database.Ping),
		Entitlements: handlers.NewEntitlementHandler(resolver, settingsStore),
		Resumes:      handlers.NewResumeHandler(resumeService, validate),
		AI:           handlers.NewAIHandler(aiService, resumeService, validate),
		Admin:        handlers.NewAdminHandler(settingsStore, subscriptionService, userService, validate),
		Cron:         handlers.NewCronHandler(subscriptionService, cfg.CronSecret),
		Webhooks:     handlers.NewWebhookHandler(userService, cfg.WebhookKey, validate),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, routes.Deps{
		Users:       userService,
		Settings:    settingsStore,
		AdminPolicy: middleware.NewAdminPolicy(cfg),
	}, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(jobsDone)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.ErrorContext(c.UserContext(), "unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
