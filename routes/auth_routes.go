package routes

import (
	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler, limiter *middleware.RateLimiter) {
	authGroup := api.Group("/auth")
	authGroup.Post("/login", limiter.Limit(), h.Login)
	authGroup.Get("/me", auth, h.Me)
}
