package handlers

import (
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createUserRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=student counselor chairperson STUDENT COUNSELOR CHAIRPERSON"`

	StudentNumber       string `json:"studentNumber" validate:"max=50"`
	Department          string `json:"department" validate:"max=100"`
	CurrentSemester     int    `json:"currentSemester" validate:"omitempty,min=1,max=16"`
	AssignedCounselorID string `json:"assignedCounselorId" validate:"omitempty,uuid"`

	Title           string   `json:"title" validate:"max=100"`
	Specializations []string `json:"specializations" validate:"omitempty,dive,max=100"`
	MaxStudents     int      `json:"maxStudents" validate:"omitempty,min=1"`
}

type assignCounselorRequest struct {
	CounselorID string `json:"counselorId" validate:"required,uuid"`
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req createUserRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	counselorID, err := optionalUUID(req.AssignedCounselorID, "assignedCounselorId")
	if err != nil {
		return h.fail(c, err)
	}

	user, err := h.svc.Users.CreateUser(c.UserContext(), actor, services.CreateUserInput{
		FullName:            req.FullName,
		Email:               req.Email,
		Password:            req.Password,
		Role:                req.Role,
		StudentNumber:       req.StudentNumber,
		Department:          req.Department,
		CurrentSemester:     req.CurrentSemester,
		AssignedCounselorID: counselorID,
		Title:               req.Title,
		Specializations:     req.Specializations,
		MaxStudents:         req.MaxStudents,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, summarize(*user))
}

func (h *Handler) AssignCounselor(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	studentID, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req assignCounselorRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	counselorID := uuid.MustParse(req.CounselorID)

	events, err := h.svc.Users.AssignCounselor(c.UserContext(), actor, studentID, counselorID)
	if err != nil {
		return h.fail(c, err)
	}
	h.dispatch(c, events)
	return respond(c, fiber.StatusOK, fiber.Map{"studentId": studentID, "counselorId": counselorID})
}

func (h *Handler) SetUserStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req userStatusRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.Users.SetActive(c.UserContext(), actor, id, *req.IsActive); err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"id": id, "isActive": *req.IsActive})
}

func (h *Handler) ListCounselors(c *fiber.Ctx) error {
	items, err := h.svc.Users.ListCounselors(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]counselorResponse, 0, len(items))
	for i := range items {
		out = append(out, toCounselor(&items[i]))
	}
	return respond(c, fiber.StatusOK, out)
}

func (h *Handler) ListMyStudents(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	page := pageFrom(c)
	items, total, err := h.svc.Users.ListAssignedStudents(c.UserContext(), actor, page)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]studentResponse, 0, len(items))
	for i := range items {
		out = append(out, toStudent(&items[i]))
	}
	return respondPage(c, out, page, total)
}
