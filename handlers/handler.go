package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// EventDispatcher delivers post-commit notifications off the request path.
type EventDispatcher interface {
	DispatchAsync(ctx context.Context, events []services.Event)
}

type Services struct {
	Appointments  *services.AppointmentService
	Messaging     *services.MessagingService
	Notifications *services.NotificationService
	Analytics     *services.AnalyticsService
	Reports       *services.ReportService
	Notes         *services.NoteService
	Users         *services.UserService
}

type Handler struct {
	svc      Services
	events   EventDispatcher
	validate *validator.Validate
	log      *slog.Logger
}

func New(log *slog.Logger, svc Services, events EventDispatcher) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return &Handler{
		svc:      svc,
		events:   events,
		validate: v,
		log:      log.With("component", "http"),
	}
}

// parse reads the JSON body into req and validates it.
func (h *Handler) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return services.Validation("Cannot parse request body")
	}
	return h.check(req)
}

func (h *Handler) check(req any) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return services.Validation("invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return services.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid", "uuid4":
		return fe.Field() + " must be a valid id"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}

func (h *Handler) actor(c *fiber.Ctx) (services.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return services.Actor{}, services.Unauthorized("Authentication required")
	}
	return actor, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, services.Validation("invalid %s", name)
	}
	return id, nil
}

func optionalUUID(raw, name string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, services.Validation("invalid %s", name)
	}
	return &id, nil
}

// multiQuery collects a query parameter given repeatedly or comma separated.
func multiQuery(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) dispatch(c *fiber.Ctx, events []services.Event) {
	if h.events != nil {
		h.events.DispatchAsync(c.UserContext(), events)
	}
}
