package handlers

import (
	"fmt"

	"github.com/anjiri1684/counsel_connect/services"
	"github.com/gofiber/fiber/v2"
)

func analyticsInput(c *fiber.Ctx) services.AnalyticsInput {
	return services.AnalyticsInput{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Timeframe: c.Query("timeframe"),
	}
}

func (h *Handler) GetAnalytics(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	data, err := h.svc.Analytics.Compute(c.UserContext(), actor, analyticsInput(c))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, data)
}

// GetAnalyticsReport returns the analytics as a PDF, or as HTML with ?format=html.
func (h *Handler) GetAnalyticsReport(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	in := analyticsInput(c)

	if c.Query("format") == "html" {
		html, err := h.svc.Reports.RenderHTML(c.UserContext(), actor, in)
		if err != nil {
			return h.fail(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}

	pdf, err := h.svc.Reports.RenderPDF(c.UserContext(), actor, in)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "analytics-"+c.Context().Time().Format("2006-01-02")+".pdf"))
	return c.Send(pdf)
}
