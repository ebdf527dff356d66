package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Gorm) FindConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	low, high := models.ParticipantPair(a, b)
	var c models.Conversation
	err := conn(ctx, s.db).
		Where("participant_low_id = ? AND participant_high_id = ?", low, high).
		First(&c).Error
	if err != nil {
		return nil, mapError(err, "conversation")
	}
	return &c, nil
}

// CreateConversation returns ErrDuplicate if the pair already has a conversation.
func (s *Gorm) CreateConversation(ctx context.Context, c *models.Conversation) error {
	c.ParticipantLowID, c.ParticipantHighID = models.ParticipantPair(c.ParticipantLowID, c.ParticipantHighID)
	return mapError(conn(ctx, s.db).Omit("LastMessage").Create(c).Error, "create conversation")
}

func (s *Gorm) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var c models.Conversation
	if err := conn(ctx, s.db).Preload("LastMessage").First(&c, "id = ?", id).Error; err != nil {
		return nil, mapError(err, "conversation "+id.String())
	}
	return &c, nil
}

func (s *Gorm) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var out []models.Conversation
	err := conn(ctx, s.db).
		Preload("LastMessage").
		Where("participant_low_id = ? OR participant_high_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) desc, id asc").
		Find(&out).Error
	if err != nil {
		return nil, mapError(err, "list conversations")
	}
	return out, nil
}

// CreateMessage stores m and moves the conversation's last-message pointer.
func (s *Gorm) CreateMessage(ctx context.Context, m *models.Message) error {
	err := conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(map[string]any{
				"last_message_id": m.ID,
				"last_message_at": m.CreatedAt,
				"updated_at":      m.CreatedAt,
			}).Error
	})
	return mapError(err, "create message")
}

func (s *Gorm) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var m models.Message
	if err := conn(ctx, s.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err, "message "+id.String())
	}
	return &m, nil
}

func (s *Gorm) ListMessages(ctx context.Context, conversationID uuid.UUID, page Page) ([]models.Message, int64, error) {
	page = page.Normalize()
	q := conn(ctx, s.db).Model(&models.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapError(err, "count messages")
	}
	var out []models.Message
	err := conn(ctx, s.db).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&out).Error
	if err != nil {
		return nil, 0, mapError(err, "list messages")
	}
	return out, total, nil
}

// MarkMessagesRead flips unread messages addressed to receiverID. An empty
// ids slice marks every unread message in the conversation.
func (s *Gorm) MarkMessagesRead(ctx context.Context, conversationID, receiverID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	q := conn(ctx, s.db).Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, receiverID, false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, mapError(res.Error, "mark messages read")
	}
	return res.RowsAffected, nil
}

func (s *Gorm) CountUnreadMessages(ctx context.Context, receiverID uuid.UUID, conversationID *uuid.UUID) (int64, error) {
	q := conn(ctx, s.db).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false)
	if conversationID != nil {
		q = q.Where("conversation_id = ?", *conversationID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, mapError(err, "count unread messages")
	}
	return count, nil
}

// DeleteMessage removes the message and repoints the conversation at the
// newest remaining one.
func (s *Gorm) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	err := conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		var m models.Message
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Message{}, "id = ?", id).Error; err != nil {
			return err
		}

		var latest models.Message
		err := tx.Where("conversation_id = ?", m.ConversationID).Order("created_at desc").First(&latest).Error
		updates := map[string]any{"last_message_id": nil, "last_message_at": nil}
		if err == nil {
			updates = map[string]any{"last_message_id": latest.ID, "last_message_at": latest.CreatedAt}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", m.ConversationID).Updates(updates).Error
	})
	if err != nil {
		return mapError(err, fmt.Sprintf("message %s", id))
	}
	return nil
}
