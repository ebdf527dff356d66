package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateAppointment inserts a; the partial unique slot indexes reject
// a second active appointment for the same slot with ErrSlotTaken.
func (s *Gorm) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if err := conn(ctx, s.db).Omit("Student", "Counselor").Create(a).Error; err != nil {
		return mapError(err, "create appointment")
	}
	return nil
}

func (s *Gorm) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	err := conn(ctx, s.db).
		Preload("Student").
		Preload("Counselor").
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err, "appointment "+id.String())
	}
	return &a, nil
}

func (s *Gorm) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	res := conn(ctx, s.db).Model(&models.Appointment{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"date":       a.Date,
			"time":       a.Time,
			"duration":   a.Duration,
			"type":       a.Type,
			"status":     a.Status,
			"location":   a.Location,
			"notes":      a.Notes,
			"updated_at": a.UpdatedAt,
		})
	if res.Error != nil {
		return mapError(res.Error, "appointment "+a.ID.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("appointment %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

func (s *Gorm) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, s.db).Delete(&models.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return mapError(res.Error, "appointment "+id.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindSlotConflict returns nil, nil when the slot is free.
func (s *Gorm) FindSlotConflict(ctx context.Context, q SlotQuery) (*models.Appointment, error) {
	tx := conn(ctx, s.db).
		Where("date = ? AND time = ?", models.DateOnly(q.Date), q.Time).
		Where("status IN ?", models.ActiveStatuses).
		Where("(counselor_id = ? OR student_id = ?)", q.CounselorID, q.StudentID)
	if q.ExcludeID != nil {
		tx = tx.Where("id <> ?", *q.ExcludeID)
	}

	var a models.Appointment
	err := tx.First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "find slot conflict")
	}
	return &a, nil
}

func (s *Gorm) appointmentQuery(ctx context.Context, f AppointmentFilter) *gorm.DB {
	q := conn(ctx, s.db).Model(&models.Appointment{})
	if f.StudentID != nil {
		q = q.Where("appointments.student_id = ?", *f.StudentID)
	}
	if f.CounselorID != nil {
		q = q.Where("appointments.counselor_id = ?", *f.CounselorID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("appointments.status IN ?", f.Statuses)
	}
	if len(f.Types) > 0 {
		q = q.Where("appointments.type IN ?", f.Types)
	}
	if f.From != nil {
		q = q.Where("appointments.date >= ?", models.DateOnly(*f.From))
	}
	if f.To != nil {
		q = q.Where("appointments.date <= ?", models.DateOnly(*f.To))
	}
	return q
}

func (s *Gorm) ListAppointments(ctx context.Context, f AppointmentFilter, page Page) ([]models.Appointment, int64, error) {
	page = page.Normalize()
	var total int64
	if err := s.appointmentQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, mapError(err, "count appointments")
	}

	var out []models.Appointment
	err := s.appointmentQuery(ctx, f).
		Preload("Student").
		Preload("Counselor").
		Order("appointments.date asc, appointments.time asc, appointments.id asc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&out).Error
	if err != nil {
		return nil, 0, mapError(err, "list appointments")
	}
	return out, total, nil
}

func (s *Gorm) CountAppointments(ctx context.Context, f AppointmentFilter) (int64, error) {
	var count int64
	if err := s.appointmentQuery(ctx, f).Count(&count).Error; err != nil {
		return 0, mapError(err, "count appointments")
	}
	return count, nil
}

func (s *Gorm) GroupAppointments(ctx context.Context, f AppointmentFilter, field AppointmentGroupField) (map[string]int64, error) {
	var column string
	switch field {
	case GroupByStatus:
		column = "appointments.status"
	case GroupByType:
		column = "appointments.type"
	case GroupByMonth:
		column = "to_char(appointments.date, 'YYYY-MM')"
	case GroupByCounselor:
		column = "appointments.counselor_id::text"
	default:
		return nil, fmt.Errorf("group appointments: unsupported field %q", field)
	}

	var rows []struct {
		Key   string
		Count int64
	}
	err := s.appointmentQuery(ctx, f).
		Select(column + " AS key, COUNT(*) AS count").
		Group("key").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError(err, "group appointments")
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

func (s *Gorm) AverageDuration(ctx context.Context, f AppointmentFilter) (float64, error) {
	var avg float64
	err := s.appointmentQuery(ctx, f).
		Select("COALESCE(AVG(appointments.duration), 0)").
		Row().
		Scan(&avg)
	if err != nil {
		return 0, mapError(err, "average duration")
	}
	return avg, nil
}
