package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"userId"`
	Type        NotificationType `gorm:"size:50;not null;index" json:"type"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	RelatedID   *uuid.UUID       `gorm:"type:uuid" json:"relatedId"`
	RelatedType string           `gorm:"size:50" json:"relatedType"`
	IsRead      bool             `gorm:"not null;default:false;index" json:"isRead"`
	ReadAt      *time.Time       `json:"readAt"`
	CreatedAt   time.Time        `json:"createdAt"`
}
