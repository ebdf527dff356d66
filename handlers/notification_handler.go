package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	page := pageFrom(c)
	items, total, err := h.svc.Notifications.List(c.UserContext(), actor, c.QueryBool("unread", false), page)
	if err != nil {
		return h.fail(c, err)
	}
	return respondPage(c, items, page, total)
}

func (h *Handler) UnreadNotificationCount(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	n, err := h.svc.Notifications.UnreadCount(c.UserContext(), actor)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"count": n})
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.Notifications.MarkRead(c.UserContext(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"id": id})
}

func (h *Handler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	n, err := h.svc.Notifications.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"updated": n})
}
