package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CounselorProfile struct {
	UserID          uuid.UUID `gorm:"type:uuid;primary_key" json:"userId"`
	Title           string    `gorm:"size:120" json:"title"`
	Specializations string    `gorm:"type:text" json:"-"`
	MaxStudents     int       `gorm:"not null;default:50" json:"maxStudents"`

	User User `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Tags splits the comma separated specialization list, dropping blanks.
func (c CounselorProfile) Tags() []string {
	var out []string
	for _, t := range strings.Split(c.Specializations, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
