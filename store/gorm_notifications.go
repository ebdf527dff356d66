package store

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Gorm) CreateNotification(ctx context.Context, n *models.Notification) error {
	return mapError(conn(ctx, s.db).Create(n).Error, "create notification")
}

func (s *Gorm) notificationQuery(ctx context.Context, f NotificationFilter) *gorm.DB {
	q := conn(ctx, s.db).Model(&models.Notification{}).Where("user_id = ?", f.UserID)
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return q
}

func (s *Gorm) ListNotifications(ctx context.Context, f NotificationFilter, page Page) ([]models.Notification, int64, error) {
	page = page.Normalize()
	var total int64
	if err := s.notificationQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, mapError(err, "count notifications")
	}
	var out []models.Notification
	err := s.notificationQuery(ctx, f).
		Order("created_at desc, id asc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&out).Error
	if err != nil {
		return nil, 0, mapError(err, "list notifications")
	}
	return out, total, nil
}

func (s *Gorm) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.notificationQuery(ctx, NotificationFilter{UserID: userID, UnreadOnly: true}).Count(&count).Error
	return count, mapError(err, "count unread notifications")
}

func (s *Gorm) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	res := conn(ctx, s.db).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": gorm.Expr("COALESCE(read_at, ?)", at)})
	if res.Error != nil {
		return mapError(res.Error, "notification "+id.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Gorm) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := conn(ctx, s.db).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, mapError(res.Error, "mark notifications read")
	}
	return res.RowsAffected, nil
}
