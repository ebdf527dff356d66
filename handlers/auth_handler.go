package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        uuid.UUID        `json:"id"`
	FullName  string           `json:"fullName"`
	Email     string           `json:"email"`
	Role      string           `json:"role"`
	IsActive  bool             `json:"isActive"`
	CreatedAt time.Time        `json:"createdAt"`
	Student   *studentResponse `json:"student,omitempty"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	token, user, err := h.svc.Users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  summarize(*user),
	})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	user, profile, err := h.svc.Users.Me(c.UserContext(), actor)
	if err != nil {
		return h.fail(c, err)
	}
	out := userResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      summarize(*user).Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	if profile != nil {
		profile.User = *user
		s := toStudent(profile)
		out.Student = &s
	}
	return respond(c, fiber.StatusOK, out)
}
