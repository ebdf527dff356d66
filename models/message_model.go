package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment references a blob in the external file store.
type Attachment struct {
	Key         string `gorm:"column:attachment_key;size:255"`
	FileName    string `gorm:"column:attachment_name;size:255"`
	ContentType string `gorm:"column:attachment_type;size:120"`
	Size        int64  `gorm:"column:attachment_size"`
	URL         string `gorm:"column:attachment_url;type:text"`
}

func (a Attachment) IsZero() bool { return a.Key == "" }

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null"`
	ReceiverID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Content        string     `gorm:"type:text"`
	Attachment     Attachment `gorm:"embedded"`
	IsRead         bool       `gorm:"not null;default:false"`
	ReadAt         *time.Time

	CreatedAt time.Time `gorm:"index"`
}
