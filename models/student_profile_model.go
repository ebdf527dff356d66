package models

import (
	"time"

	"github.com/google/uuid"
)

// StudentProfile is the 1:1 extension of a STUDENT user.
type StudentProfile struct {
	UserID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"userId"`
	StudentNumber       string     `gorm:"size:50" json:"studentNumber"`
	AssignedCounselorID *uuid.UUID `gorm:"type:uuid;index" json:"assignedCounselorId"`
	TotalSessions       int        `gorm:"not null;default:0" json:"totalSessions"`
	LastSessionDate     *time.Time `json:"lastSessionDate"`
	Department          string     `gorm:"size:120" json:"department"`
	CurrentSemester     int        `gorm:"not null;default:1" json:"currentSemester"`

	User User `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
