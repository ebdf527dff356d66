package store

import (
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies defaults and caps the limit.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

type AppointmentFilter struct {
	StudentID   *uuid.UUID
	CounselorID *uuid.UUID
	Statuses    []models.AppointmentStatus
	Types       []models.AppointmentType
	From        *time.Time
	To          *time.Time
}

// SlotQuery looks for an active appointment sharing (Date, Time) with either participant.
type SlotQuery struct {
	Date        time.Time
	Time        string
	CounselorID uuid.UUID
	StudentID   uuid.UUID
	ExcludeID   *uuid.UUID
}

type AppointmentGroupField string

const (
	GroupByStatus    AppointmentGroupField = "status"
	GroupByType      AppointmentGroupField = "type"
	GroupByMonth     AppointmentGroupField = "month"
	GroupByCounselor AppointmentGroupField = "counselor"
)

type UserFilter struct {
	Role                *models.Role
	ActiveOnly          bool
	AssignedCounselorID *uuid.UUID
}

type StudentGroupField string

const (
	GroupByDepartment StudentGroupField = "department"
	GroupBySemester   StudentGroupField = "semester"
)

type NotificationFilter struct {
	UserID     uuid.UUID
	UnreadOnly bool
}

type NoteFilter struct {
	StudentID      *uuid.UUID
	CounselorID    *uuid.UUID
	IncludePrivate bool
}

// MonthKey is the year-month key used for monthly grouping.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
