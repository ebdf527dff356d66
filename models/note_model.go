package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is a counselor's session note about a student.
type Note struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"studentId"`
	CounselorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"counselorId"`
	AppointmentID *uuid.UUID `gorm:"type:uuid" json:"appointmentId"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	IsPrivate     bool       `gorm:"not null;default:true" json:"isPrivate"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
