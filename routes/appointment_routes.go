package routes

import (
	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/gofiber/fiber/v2"
)

func AppointmentRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	appointments := api.Group("/appointments", auth)
	appointments.Get("", h.ListAppointments)
	appointments.Post("", h.CreateAppointment)
	appointments.Get("/:id", h.GetAppointment)
	appointments.Put("/:id", h.UpdateAppointment)
	appointments.Patch("/:id/status", h.UpdateAppointmentStatus)
	appointments.Delete("/:id", h.DeleteAppointment)
}

func AnalyticsRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	analytics := api.Group("/analytics", auth, middleware.RequireRoles(models.RoleCounselor, models.RoleChairperson))
	analytics.Get("", h.GetAnalytics)
	analytics.Get("/report", middleware.RequireRoles(models.RoleChairperson), h.GetAnalyticsReport)
}

func NoteRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	notes := api.Group("/notes", auth)
	notes.Get("", h.ListNotes)

	write := middleware.RequireRoles(models.RoleCounselor, models.RoleChairperson)
	notes.Post("", write, h.CreateNote)
	notes.Put("/:id", write, h.UpdateNote)
	notes.Delete("/:id", write, h.DeleteNote)
}
