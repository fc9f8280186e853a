package routes

import (
	"time"

	"github.com/codeWithMuze/Prompteon/internal/config"
	"github.com/codeWithMuze/Prompteon/internal/handlers"
	"github.com/codeWithMuze/Prompteon/internal/metrics"
	"github.com/codeWithMuze/Prompteon/internal/middleware"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Settings *handlers.SettingsHandler
	Forge    *handlers.ForgeHandler
	History  *handlers.HistoryHandler
	Health   *handlers.HealthHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	tokens *services.TokenService,
	cookies *session.Cookies,
	h Handlers,
) {
	app.Get("/metrics", metrics.Handler())

	// Refresh-cookie continuity for everything but auth routes
	app.Use(middleware.SessionGate(tokens, cookies))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth: public, stricter limit of 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/forgot-password/send", h.Auth.ForgotPasswordSend)
	auth.Post("/forgot-password/reset", h.Auth.ForgotPasswordReset)

	// Forge: signed-in callers are metered, anonymous callers are not
	api.Post("/generate", h.Forge.Generate)

	settings := api.Group("/settings", middleware.JWTProtected(cfg))
	settings.Get("/me", h.Settings.Me)
	settings.Post("/profile", h.Settings.UpdateProfile)
	settings.Post("/preferences", h.Settings.SavePreferences)
	settings.Post("/security/password", h.Settings.ChangePassword)
	settings.Post("/security/logout-all", h.Settings.LogoutAll)
	settings.Post("/security/email-otp/send", h.Settings.SendEmailOTP)
	settings.Post("/otp/send", h.Settings.SendPhoneOTP)
	settings.Post("/otp/verify", h.Settings.VerifyPhoneOTP)
	settings.Delete("/account", h.Settings.DeleteAccount)

	history := api.Group("/history", middleware.JWTProtected(cfg))
	history.Get("/recent", h.History.Recent)
	history.Post("/save", h.History.Save)
	history.Delete("/:id", h.History.Delete)
}
