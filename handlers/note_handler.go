package handlers

import (
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createNoteRequest struct {
	StudentID     string `json:"studentId" validate:"required,uuid"`
	AppointmentID string `json:"appointmentId" validate:"omitempty,uuid"`
	Title         string `json:"title" validate:"required,max=255"`
	Content       string `json:"content" validate:"required"`
	IsPrivate     *bool  `json:"isPrivate"`
}

type updateNoteRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=255"`
	Content   *string `json:"content"`
	IsPrivate *bool   `json:"isPrivate"`
}

func (h *Handler) ListNotes(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	studentID, err := optionalUUID(c.Query("studentId"), "studentId")
	if err != nil {
		return h.fail(c, err)
	}
	page := pageFrom(c)
	items, total, err := h.svc.Notes.List(c.UserContext(), actor, studentID, page)
	if err != nil {
		return h.fail(c, err)
	}
	return respondPage(c, items, page, total)
}

func (h *Handler) CreateNote(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req createNoteRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	appointmentID, err := optionalUUID(req.AppointmentID, "appointmentId")
	if err != nil {
		return h.fail(c, err)
	}

	note, err := h.svc.Notes.Create(c.UserContext(), actor, services.CreateNoteInput{
		StudentID:     uuid.MustParse(req.StudentID),
		AppointmentID: appointmentID,
		Title:         req.Title,
		Content:       req.Content,
		IsPrivate:     req.IsPrivate,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, note)
}

func (h *Handler) UpdateNote(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req updateNoteRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	note, err := h.svc.Notes.Update(c.UserContext(), actor, id, services.UpdateNoteInput{
		Title:     req.Title,
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, note)
}

func (h *Handler) DeleteNote(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.Notes.Delete(c.UserContext(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"id": id})
}
