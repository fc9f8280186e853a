package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/codeWithMuze/Prompteon/internal/config"
	"github.com/codeWithMuze/Prompteon/internal/database"
	"github.com/codeWithMuze/Prompteon/internal/handlers"
	"github.com/codeWithMuze/Prompteon/internal/history"
	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/llm"
	"github.com/codeWithMuze/Prompteon/internal/logging"
	"github.com/codeWithMuze/Prompteon/internal/middleware"
	"github.com/codeWithMuze/Prompteon/internal/notify"
	"github.com/codeWithMuze/Prompteon/internal/ratelimit"
	"github.com/codeWithMuze/Prompteon/internal/routes"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "prompteon",
		Short:         "Prompteon prompt workbench API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("migrations applied", "db", cfg.DBName)
			return nil
		},
	}
}

func bootstrap(ctx context.Context) (*config.Config, *gorm.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runServe(ctx context.Context) error {
	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	if err := database.Migrate(db); err != nil {
		return err
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	logging.Attach(logging.ParseLevel(cfg.LogLevel), pgLogHandler)

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

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

	// Rate-limit counters: shared through Redis when configured
	var counter ratelimit.Counter = ratelimit.NewMemoryCounter(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		counter = ratelimit.NewRedisCounter(client, ratelimit.DefaultLimit, ratelimit.DefaultWindow)
		slog.Info("rate limiter using redis")
	}

	// Services
	directory := identity.NewGormDirectory(db)
	historyStore := history.NewGormStore(db)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	cookies := session.NewCookies(cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry, cfg.IsProduction())
	otp := services.NewOTPService(directory)
	emailSender := notify.NewEmailSender(cfg)
	smsSender := notify.NewSMSSender(cfg)

	authService := services.NewAuthService(directory, tokens, otp, emailSender)
	accountService := services.NewAccountService(directory, tokens, otp, counter, emailSender, smsSender)
	usageService := services.NewUsageService(historyStore)
	forgeService := services.NewForgeService(tokens, directory, usageService, historyStore, llm.NewClient(cfg))
	historyService := services.NewHistoryService(historyStore)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
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

	// Routes
	routes.Setup(app, cfg, tokens, cookies, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, cookies),
		Settings: handlers.NewSettingsHandler(accountService, cookies),
		Forge:    handlers.NewForgeHandler(forgeService),
		History:  handlers.NewHistoryHandler(historyService),
		Health:   handlers.NewHealthHandler(database.Pinger(db)),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-quit:
		slog.Info("shutting down server...")
	case err := <-serveErr:
		if err != nil {
			slog.Error("server failed to start", "error", err)
		}
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
