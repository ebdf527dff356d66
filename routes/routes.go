package routes

import (
	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

// Register mounts the /api/v1 surface. Every group except login sits
// behind the bearer token check.
func Register(app *fiber.App, h *handlers.Handler, jwtSecret string, accounts middleware.Accounts, loginLimiter *middleware.RateLimiter) {
	api := app.Group("/api/v1")
	auth := middleware.Protected(jwtSecret, accounts)

	AuthRoutes(api, h, auth, loginLimiter)
	AppointmentRoutes(api, h, auth)
	MessagingRoutes(api, h, auth)
	NotificationRoutes(api, h, auth)
	NoteRoutes(api, h, auth)
	AnalyticsRoutes(api, h, auth)
	AdminRoutes(api, h, auth)
}
