package handlers

import (
	"errors"

	"github.com/anjiri1684/counsel_connect/services"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/gofiber/fiber/v2"
)

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPagination(page store.Page, total int64) *pagination {
	page = page.Normalize()
	pages := total / int64(page.Limit)
	if total%int64(page.Limit) != 0 {
		pages++
	}
	return &pagination{Page: page.Page, Limit: page.Limit, Total: total, TotalPages: pages}
}

func pageFrom(c *fiber.Ctx) store.Page {
	return store.Page{Page: c.QueryInt("page", store.DefaultPage), Limit: c.QueryInt("limit", store.DefaultLimit)}.Normalize()
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func respondPage(c *fiber.Ctx, data any, page store.Page, total int64) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": newPagination(page, total),
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindAlreadyInStatus, services.KindTerminalState:
		return fiber.StatusBadRequest
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindRateLimited:
		return fiber.StatusTooManyRequests
	}
	return fiber.StatusInternalServerError
}

// fail writes the error envelope. Internal causes are logged, never returned.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = services.Internal(err, "Internal server error")
	}
	if svcErr.Kind == services.KindInternal {
		h.log.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(StatusFor(svcErr.Kind)).JSON(fiber.Map{
		"success": false,
		"message": svcErr.Message,
		"kind":    svcErr.Kind,
	})
}

// ErrorHandler is the app-level fallback for errors returned by handlers
// and for fiber's own errors.
func ErrorHandler(h *Handler) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			kind := services.KindInternal
			switch {
			case fe.Code == fiber.StatusNotFound:
				kind = services.KindNotFound
			case fe.Code < fiber.StatusInternalServerError:
				kind = services.KindValidation
			}
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"message": fe.Message,
				"kind":    kind,
			})
		}
		return h.fail(c, err)
	}
}
