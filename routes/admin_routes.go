package routes

import (
	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	counselors := api.Group("/counselors", auth)
	counselors.Get("", h.ListCounselors)
	counselors.Get("/me/students", middleware.RequireRoles(models.RoleCounselor), h.ListMyStudents)

	admin := api.Group("/admin", auth, middleware.RequireRoles(models.RoleChairperson))
	admin.Post("/users", h.CreateUser)
	admin.Patch("/users/:id/status", h.SetUserStatus)
	admin.Put("/students/:id/counselor", h.AssignCounselor)
}
