package handlers

import (
	"fmt"
	"strings"

	"github.com/anjiri1684/counsel_connect/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type startConversationRequest struct {
	ParticipantID string `json:"participantId" validate:"required,uuid"`
}

type sendMessageRequest struct {
	Content string `json:"content" form:"content" validate:"max=5000"`
}

type markReadRequest struct {
	MessageIDs []string `json:"messageIds" validate:"omitempty,dive,uuid"`
}

func (h *Handler) StartConversation(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req startConversationRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	summary, created, err := h.svc.Messaging.StartConversation(c.UserContext(), actor, uuid.MustParse(req.ParticipantID))
	if err != nil {
		return h.fail(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return respond(c, status, toConversation(&summary.Conversation, summary.Counterpart, summary.UnreadCount))
}

func (h *Handler) ListConversations(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	summaries, err := h.svc.Messaging.ListConversations(c.UserContext(), actor)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]conversationResponse, 0, len(summaries))
	for i := range summaries {
		s := &summaries[i]
		out = append(out, toConversation(&s.Conversation, s.Counterpart, s.UnreadCount))
	}
	return respond(c, fiber.StatusOK, out)
}

func (h *Handler) ListMessages(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	page := pageFrom(c)
	items, total, err := h.svc.Messaging.ListMessages(c.UserContext(), actor, id, page)
	if err != nil {
		return h.fail(c, err)
	}
	return respondPage(c, toMessages(items), page, total)
}

// SendMessage accepts JSON, or multipart/form-data with an optional "file" part.
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	var req sendMessageRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}
	in := services.SendMessageInput{Content: req.Content}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return h.fail(c, services.Validation("invalid multipart form"))
		}
		files := form.File["file"]
		if len(files) > 1 {
			return h.fail(c, services.Validation("a message can carry only one attachment"))
		}
		if len(files) == 1 {
			fh := files[0]
			if fh.Size > services.MaxAttachmentSize {
				return h.fail(c, services.Validation("attachment exceeds %d MiB", services.MaxAttachmentSize>>20))
			}
			f, err := fh.Open()
			if err != nil {
				return h.fail(c, services.Validation("invalid file upload"))
			}
			defer f.Close()
			in.File = &services.AttachmentUpload{
				FileName:    fh.Filename,
				ContentType: fh.Header.Get(fiber.HeaderContentType),
				Size:        fh.Size,
				Body:        f,
			}
		}
	}

	msg, events, err := h.svc.Messaging.SendMessage(c.UserContext(), actor, id, in)
	if err != nil {
		return h.fail(c, err)
	}
	h.dispatch(c, events)
	return respond(c, fiber.StatusCreated, toMessage(msg))
}

func (h *Handler) MarkConversationRead(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	var req markReadRequest
	if len(c.Body()) > 0 {
		if err := h.parse(c, &req); err != nil {
			return h.fail(c, err)
		}
	}
	ids := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		ids = append(ids, uuid.MustParse(raw))
	}

	n, err := h.svc.Messaging.MarkRead(c.UserContext(), actor, id, ids)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"updated": n})
}

func (h *Handler) UnreadMessageCount(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	convID, err := optionalUUID(c.Query("conversationId"), "conversationId")
	if err != nil {
		return h.fail(c, err)
	}
	n, err := h.svc.Messaging.UnreadCount(c.UserContext(), actor, convID)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"count": n})
}

func (h *Handler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	body, att, err := h.svc.Messaging.OpenAttachment(c.UserContext(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}

	contentType := att.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.FileName))
	// fasthttp closes the stream once it has been written
	return c.SendStream(body)
}

func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.Messaging.DeleteMessage(c.UserContext(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"id": id})
}
