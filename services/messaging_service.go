package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/storage"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
)

// MaxAttachmentSize caps a single message attachment.
const MaxAttachmentSize = 10 << 20

const messagePreviewLen = 80

type conversationRepo interface {
	FindConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, page store.Page) ([]models.Message, int64, error)
	MarkMessagesRead(ctx context.Context, conversationID, receiverID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)
	CountUnreadMessages(ctx context.Context, receiverID uuid.UUID, conversationID *uuid.UUID) (int64, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

// BlobStore is the opaque attachment store.
type BlobStore interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (storage.Blob, error)
	Open(ctx context.Context, url string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type MessagingService struct {
	conversations conversationRepo
	users         userLookup
	blobs         BlobStore
	log           *slog.Logger
	now           func() time.Time
}

// NewMessagingService builds the service; blobs may be nil, which disables attachments.
func NewMessagingService(log *slog.Logger, conversations conversationRepo, users userLookup, blobs BlobStore) *MessagingService {
	return &MessagingService{
		conversations: conversations,
		users:         users,
		blobs:         blobs,
		log:           log.With("service", "messaging"),
		now:           time.Now,
	}
}

type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type SendMessageInput struct {
	Content string
	File    *AttachmentUpload
}

// ConversationSummary is a conversation as seen by one participant.
type ConversationSummary struct {
	Conversation models.Conversation
	Counterpart  models.User
	UnreadCount  int64
}

// StartConversation returns the conversation between actor and otherID,
// creating it on first contact. created reports whether it is new.
func (s *MessagingService) StartConversation(ctx context.Context, actor Actor, otherID uuid.UUID) (*ConversationSummary, bool, error) {
	if otherID == uuid.Nil {
		return nil, false, Validation("participantId is required")
	}
	if otherID == actor.UserID {
		return nil, false, Validation("cannot start a conversation with yourself")
	}
	other, err := s.users.GetUser(ctx, otherID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, NotFound("user not found")
	}
	if err != nil {
		return nil, false, Internal(err, "failed to load user")
	}
	if !other.IsActive {
		return nil, false, Validation("user is not active")
	}

	conv, err := s.find(ctx, actor.UserID, otherID)
	if err != nil {
		return nil, false, err
	}
	created := false
	if conv == nil {
		conv = &models.Conversation{ParticipantLowID: actor.UserID, ParticipantHighID: otherID}
		err = s.conversations.CreateConversation(ctx, conv)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			// the counterpart started the same conversation concurrently
			if conv, err = s.find(ctx, actor.UserID, otherID); err != nil {
				return nil, false, err
			}
			if conv == nil {
				return nil, false, Internal(store.ErrDuplicate, "failed to create conversation")
			}
		case err != nil:
			return nil, false, Internal(err, "failed to create conversation")
		default:
			created = true
		}
	}

	id := conv.ID
	unread, err := s.conversations.CountUnreadMessages(ctx, actor.UserID, &id)
	if err != nil {
		return nil, false, Internal(err, "failed to count unread messages")
	}
	return &ConversationSummary{Conversation: *conv, Counterpart: *other, UnreadCount: unread}, created, nil
}

func (s *MessagingService) find(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.FindConversation(ctx, a, b)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Internal(err, "failed to load conversation")
	}
	return conv, nil
}

func (s *MessagingService) ListConversations(ctx context.Context, actor Actor) ([]ConversationSummary, error) {
	convs, err := s.conversations.ListConversations(ctx, actor.UserID)
	if err != nil {
		return nil, Internal(err, "failed to list conversations")
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summary := ConversationSummary{Conversation: c}
		other, err := s.users.GetUser(ctx, c.Other(actor.UserID))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, Internal(err, "failed to load participant")
		}
		if other != nil {
			summary.Counterpart = *other
		}
		id := c.ID
		summary.UnreadCount, err = s.conversations.CountUnreadMessages(ctx, actor.UserID, &id)
		if err != nil {
			return nil, Internal(err, "failed to count unread messages")
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *MessagingService) conversationFor(ctx context.Context, actor Actor, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("conversation not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load conversation")
	}
	if !conv.HasParticipant(actor.UserID) {
		return nil, Forbidden("you are not a participant of this conversation")
	}
	return conv, nil
}

// ListMessages returns messages oldest first. Fetching never marks them read.
func (s *MessagingService) ListMessages(ctx context.Context, actor Actor, conversationID uuid.UUID, page store.Page) ([]models.Message, int64, error) {
	if _, err := s.conversationFor(ctx, actor, conversationID); err != nil {
		return nil, 0, err
	}
	items, total, err := s.conversations.ListMessages(ctx, conversationID, page)
	if err != nil {
		return nil, 0, Internal(err, "failed to list messages")
	}
	return items, total, nil
}

func (s *MessagingService) SendMessage(ctx context.Context, actor Actor, conversationID uuid.UUID, in SendMessageInput) (*models.Message, []Event, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.File == nil {
		return nil, nil, Validation("message must have content or an attachment")
	}
	if in.File != nil {
		if s.blobs == nil {
			return nil, nil, Validation("file attachments are not enabled")
		}
		if in.File.Size > MaxAttachmentSize {
			return nil, nil, Validation("attachment exceeds %d MiB", MaxAttachmentSize>>20)
		}
	}

	conv, err := s.conversationFor(ctx, actor, conversationID)
	if err != nil {
		return nil, nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       actor.UserID,
		ReceiverID:     conv.Other(actor.UserID),
		Content:        content,
	}

	if in.File != nil {
		blob, err := s.blobs.Upload(ctx, in.File.FileName, in.File.Body)
		if err != nil {
			return nil, nil, Internal(err, "failed to store attachment")
		}
		msg.Attachment = models.Attachment{
			Key:         blob.Key,
			FileName:    in.File.FileName,
			ContentType: in.File.ContentType,
			Size:        in.File.Size,
			URL:         blob.URL,
		}
	}

	if err := s.conversations.CreateMessage(ctx, msg); err != nil {
		if !msg.Attachment.IsZero() {
			s.deleteBlob(ctx, msg.Attachment.Key)
		}
		return nil, nil, Internal(err, "failed to send message")
	}

	preview := content
	if preview == "" {
		preview = "Sent an attachment: " + msg.Attachment.FileName
	}
	if r := []rune(preview); len(r) > messagePreviewLen {
		preview = string(r[:messagePreviewLen]) + "..."
	}
	title := "New message"
	if sender, err := s.users.GetUser(ctx, actor.UserID); err == nil {
		title = fmt.Sprintf("New message from %s", sender.FullName)
	}
	id := msg.ID
	events := []Event{{
		Recipient:   msg.ReceiverID,
		Type:        models.NotificationNewMessage,
		Title:       title,
		Message:     preview,
		RelatedID:   &id,
		RelatedType: models.RelatedMessage,
	}}
	return msg, events, nil
}

// MarkRead marks messages received by actor in the conversation. An empty
// ids list marks all of them.
func (s *MessagingService) MarkRead(ctx context.Context, actor Actor, conversationID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if _, err := s.conversationFor(ctx, actor, conversationID); err != nil {
		return 0, err
	}
	n, err := s.conversations.MarkMessagesRead(ctx, conversationID, actor.UserID, ids, s.now())
	if err != nil {
		return 0, Internal(err, "failed to mark messages read")
	}
	return n, nil
}

// UnreadCount counts messages waiting for actor, optionally in one conversation.
func (s *MessagingService) UnreadCount(ctx context.Context, actor Actor, conversationID *uuid.UUID) (int64, error) {
	if conversationID != nil {
		if _, err := s.conversationFor(ctx, actor, *conversationID); err != nil {
			return 0, err
		}
	}
	n, err := s.conversations.CountUnreadMessages(ctx, actor.UserID, conversationID)
	if err != nil {
		return 0, Internal(err, "failed to count unread messages")
	}
	return n, nil
}

func (s *MessagingService) messageFor(ctx context.Context, actor Actor, id uuid.UUID) (*models.Message, error) {
	msg, err := s.conversations.GetMessage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("message not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load message")
	}
	if msg.SenderID != actor.UserID && msg.ReceiverID != actor.UserID {
		return nil, Forbidden("you are not a participant of this conversation")
	}
	return msg, nil
}

// OpenAttachment streams a message's attachment to a participant.
func (s *MessagingService) OpenAttachment(ctx context.Context, actor Actor, messageID uuid.UUID) (io.ReadCloser, models.Attachment, error) {
	msg, err := s.messageFor(ctx, actor, messageID)
	if err != nil {
		return nil, models.Attachment{}, err
	}
	if msg.Attachment.IsZero() {
		return nil, models.Attachment{}, NotFound("message has no attachment")
	}
	if s.blobs == nil {
		return nil, models.Attachment{}, NotFound("file attachments are not enabled")
	}
	body, err := s.blobs.Open(ctx, msg.Attachment.URL)
	if err != nil {
		return nil, models.Attachment{}, Internal(err, "failed to fetch attachment")
	}
	return body, msg.Attachment, nil
}

// DeleteMessage removes a message; only its sender may do so.
func (s *MessagingService) DeleteMessage(ctx context.Context, actor Actor, messageID uuid.UUID) error {
	msg, err := s.messageFor(ctx, actor, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actor.UserID {
		return Forbidden("only the sender can delete a message")
	}
	if err := s.conversations.DeleteMessage(ctx, msg.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("message not found")
		}
		return Internal(err, "failed to delete message")
	}
	if !msg.Attachment.IsZero() {
		s.deleteBlob(ctx, msg.Attachment.Key)
	}
	return nil
}

func (s *MessagingService) deleteBlob(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.WarnContext(ctx, "attachment not deleted", "key", key, "error", err)
	}
}
