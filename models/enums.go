package models

import "strings"

type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleCounselor   Role = "COUNSELOR"
	RoleChairperson Role = "CHAIRPERSON"
)

// ParseRole accepts any casing; ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleStudent, RoleCounselor, RoleChairperson:
		return r, true
	}
	return "", false
}

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusScheduled}

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	st := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusScheduled
}

type AppointmentType string

const (
	TypeCounseling AppointmentType = "COUNSELING"
	TypeAcademic   AppointmentType = "ACADEMIC"
	TypeCareer     AppointmentType = "CAREER"
	TypePersonal   AppointmentType = "PERSONAL"
)

func ParseAppointmentType(s string) (AppointmentType, bool) {
	t := AppointmentType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeCounseling, TypeAcademic, TypeCareer, TypePersonal:
		return t, true
	}
	return "", false
}

type NotificationType string

const (
	NotificationAppointmentCreated   NotificationType = "APPOINTMENT_CREATED"
	NotificationAppointmentUpdated   NotificationType = "APPOINTMENT_UPDATED"
	NotificationAppointmentConfirmed NotificationType = "APPOINTMENT_CONFIRMED"
	NotificationAppointmentCompleted NotificationType = "APPOINTMENT_COMPLETED"
	NotificationAppointmentCancelled NotificationType = "APPOINTMENT_CANCELLED"
	NotificationAppointmentDeleted   NotificationType = "APPOINTMENT_DELETED"
	NotificationAppointmentReminder  NotificationType = "APPOINTMENT_REMINDER"
	NotificationNewMessage           NotificationType = "NEW_MESSAGE"
	NotificationCounselorAssigned    NotificationType = "COUNSELOR_ASSIGNED"
)

const (
	RelatedAppointment = "appointment"
	RelatedMessage     = "message"
	RelatedStudent     = "student"
)
