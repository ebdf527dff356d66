package services

import (
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

// IsOverride reports whether the actor bypasses ownership and terminal-state rules.
func (a Actor) IsOverride() bool {
	return a.Role == models.RoleChairperson
}

func (a Actor) Is(role models.Role) bool {
	return a.Role == role
}

// CanAccessAppointment: participants and the override role.
func (a Actor) CanAccessAppointment(appt *models.Appointment) bool {
	return a.IsOverride() || appt.IsParticipant(a.UserID)
}

// CanMarkCompleted: only the counselor of record closes a session.
func (a Actor) CanMarkCompleted(appt *models.Appointment) bool {
	return a.Role == models.RoleCounselor && appt.CounselorID == a.UserID
}

// CanBook checks the assignment relationship for a new appointment between
// the given student profile and counselor.
func (a Actor) CanBook(student *models.StudentProfile, counselorID uuid.UUID) bool {
	switch a.Role {
	case models.RoleChairperson:
		return true
	case models.RoleStudent:
		return a.UserID == student.UserID &&
			student.AssignedCounselorID != nil && *student.AssignedCounselorID == counselorID
	case models.RoleCounselor:
		return a.UserID == counselorID &&
			student.AssignedCounselorID != nil && *student.AssignedCounselorID == a.UserID
	}
	return false
}

// CanWriteNotes: counselors about their assigned students.
func (a Actor) CanWriteNotes(student *models.StudentProfile) bool {
	return a.Role == models.RoleCounselor &&
		student.AssignedCounselorID != nil && *student.AssignedCounselorID == a.UserID
}

// CanViewAnalytics: students have no analytics view.
func (a Actor) CanViewAnalytics() bool {
	return a.Role == models.RoleCounselor || a.IsOverride()
}
