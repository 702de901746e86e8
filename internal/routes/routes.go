package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ideafare/moderation-backend/internal/config"
	"github.com/ideafare/moderation-backend/internal/handlers"
	"github.com/ideafare/moderation-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	flagHandler *handlers.FlagHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Flagging — reads are public so anonymous visitors can render counts
	// and the report form; the toggle write requires a logged-in user.
	api.Get("/flags/summary", flagHandler.Summary)
	api.Get("/flags/reasons", flagHandler.Reasons)
	api.Get("/flags/reported", middleware.JWTProtected(cfg), flagHandler.HasReported)
	api.Post("/flags", middleware.JWTProtected(cfg), flagHandler.SetFlag)

	// Moderation — the external state write, moderators only
	moderation := api.Group("/moderation",
		middleware.JWTProtected(cfg),
		middleware.ModeratorRequired(db, cfg),
	)
	moderation.Patch("/flags/:id/state", flagHandler.SetState)
}
