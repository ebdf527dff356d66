package handlers

import (
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createAppointmentRequest struct {
	StudentID   string `json:"studentId" validate:"required,uuid"`
	CounselorID string `json:"counselorId" validate:"required,uuid"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Duration    *int   `json:"duration" validate:"omitempty,min=1,max=480"`
	Location    string `json:"location" validate:"max=255"`
	Notes       string `json:"notes"`
	Status      string `json:"status"`
}

type updateAppointmentRequest struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Duration *int    `json:"duration" validate:"omitempty,min=1,max=480"`
	Location *string `json:"location" validate:"omitempty,max=255"`
	Type     *string `json:"type"`
	Notes    *string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) ListAppointments(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	studentID, err := optionalUUID(c.Query("studentId"), "studentId")
	if err != nil {
		return h.fail(c, err)
	}
	counselorID, err := optionalUUID(c.Query("counselorId"), "counselorId")
	if err != nil {
		return h.fail(c, err)
	}

	page := pageFrom(c)
	items, total, err := h.svc.Appointments.List(c.UserContext(), actor, services.ListAppointmentsInput{
		Statuses:    multiQuery(c, "status"),
		Types:       multiQuery(c, "type"),
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
		Timeframe:   c.Query("timeframe"),
		StudentID:   studentID,
		CounselorID: counselorID,
		Page:        page,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return respondPage(c, toAppointments(items), page, total)
}

func (h *Handler) GetAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	appt, err := h.svc.Appointments.Get(c.UserContext(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, toAppointment(appt))
}

func (h *Handler) CreateAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req createAppointmentRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	appt, events, err := h.svc.Appointments.Create(c.UserContext(), actor, services.CreateAppointmentInput{
		StudentID:   uuid.MustParse(req.StudentID),
		CounselorID: uuid.MustParse(req.CounselorID),
		Date:        req.Date,
		Time:        req.Time,
		Type:        req.Type,
		Duration:    req.Duration,
		Location:    req.Location,
		Notes:       req.Notes,
		Status:      req.Status,
	})
	if err != nil {
		return h.fail(c, err)
	}
	h.dispatch(c, events)
	return respond(c, fiber.StatusCreated, toAppointment(appt))
}

func (h *Handler) UpdateAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req updateAppointmentRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	appt, events, err := h.svc.Appointments.Reschedule(c.UserContext(), actor, id, services.UpdateAppointmentInput{
		Date:     req.Date,
		Time:     req.Time,
		Duration: req.Duration,
		Location: req.Location,
		Type:     req.Type,
		Notes:    req.Notes,
	})
	if err != nil {
		return h.fail(c, err)
	}
	h.dispatch(c, events)
	return respond(c, fiber.StatusOK, toAppointment(appt))
}

func (h *Handler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req updateStatusRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	appt, events, err := h.svc.Appointments.UpdateStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	h.dispatch(c, events)
	return respond(c, fiber.StatusOK, toAppointment(appt))
}

func (h *Handler) DeleteAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	events, err := h.svc.Appointments.Delete(c.UserContext(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	h.dispatch(c, events)
	return respond(c, fiber.StatusOK, fiber.Map{"id": id})
}
