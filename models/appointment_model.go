package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultAppointmentDuration = 60

type Appointment struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StudentID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	CounselorID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Date        time.Time         `gorm:"type:date;not null;index"`
	Time        string            `gorm:"size:20;not null"`
	Duration    int               `gorm:"not null;default:60"`
	Type        AppointmentType   `gorm:"size:20;not null"`
	Status      AppointmentStatus `gorm:"size:20;not null;default:'PENDING';index"`
	Location    string            `gorm:"size:255"`
	Notes       string            `gorm:"type:text"`

	Student   User `gorm:"foreignkey:StudentID"`
	Counselor User `gorm:"foreignkey:CounselorID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsParticipant reports whether userID is the student or the counselor of record.
func (a *Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.StudentID == userID || a.CounselorID == userID
}

// Counterpart returns the other participant for userID.
func (a *Appointment) Counterpart(userID uuid.UUID) uuid.UUID {
	if a.StudentID == userID {
		return a.CounselorID
	}
	return a.StudentID
}

// DateOnly truncates t to a calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
