package routes

import (
	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	conversations := api.Group("/conversations", auth)
	conversations.Get("", h.ListConversations)
	conversations.Post("", h.StartConversation)
	conversations.Get("/:id/messages", h.ListMessages)
	conversations.Post("/:id/messages", h.SendMessage)
	conversations.Patch("/:id/read", h.MarkConversationRead)

	messages := api.Group("/messages", auth)
	messages.Get("/unread-count", h.UnreadMessageCount)
	messages.Get("/:id/attachment", h.DownloadAttachment)
	messages.Delete("/:id", h.DeleteMessage)
}

func NotificationRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	notifications := api.Group("/notifications", auth)
	notifications.Get("", h.ListNotifications)
	notifications.Get("/unread-count", h.UnreadNotificationCount)
	notifications.Patch("/read-all", h.MarkAllNotificationsRead)
	notifications.Patch("/:id/read", h.MarkNotificationRead)
}
