package store

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Gorm) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := conn(ctx, s.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapError(err, "user "+id.String())
	}
	return &user, nil
}

func (s *Gorm) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, s.db).Where("lower(email) = lower(?)", email).First(&user).Error; err != nil {
		return nil, mapError(err, "user "+email)
	}
	return &user, nil
}

// CreateUser inserts the user together with its role profile.
func (s *Gorm) CreateUser(ctx context.Context, user *models.User, student *models.StudentProfile, counselor *models.CounselorProfile) error {
	err := conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if student != nil {
			student.UserID = user.ID
			if err := tx.Omit("User").Create(student).Error; err != nil {
				return err
			}
		}
		if counselor != nil {
			counselor.UserID = user.ID
			if err := tx.Omit("User").Create(counselor).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return mapError(err, "create user")
}

func (s *Gorm) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := conn(ctx, s.db).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return mapError(res.Error, "user "+id.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Gorm) GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := conn(ctx, s.db).Preload("User").First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, mapError(err, "student profile "+userID.String())
	}
	return &profile, nil
}

func (s *Gorm) AssignCounselor(ctx context.Context, studentID, counselorID uuid.UUID) error {
	res := conn(ctx, s.db).Model(&models.StudentProfile{}).
		Where("user_id = ?", studentID).
		Update("assigned_counselor_id", counselorID)
	if res.Error != nil {
		return mapError(res.Error, "student profile "+studentID.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("student profile %s: %w", studentID, ErrNotFound)
	}
	return nil
}

// RecordCompletedSession increments the session counter atomically.
func (s *Gorm) RecordCompletedSession(ctx context.Context, studentID uuid.UUID, at time.Time) error {
	res := conn(ctx, s.db).Model(&models.StudentProfile{}).
		Where("user_id = ?", studentID).
		Updates(map[string]any{
			"total_sessions":    gorm.Expr("total_sessions + 1"),
			"last_session_date": at,
		})
	if res.Error != nil {
		return mapError(res.Error, "student profile "+studentID.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("student profile %s: %w", studentID, ErrNotFound)
	}
	return nil
}

func (s *Gorm) studentQuery(ctx context.Context, f UserFilter) *gorm.DB {
	q := conn(ctx, s.db).Model(&models.StudentProfile{}).
		Joins("JOIN users ON users.id = student_profiles.user_id")
	if f.ActiveOnly {
		q = q.Where("users.is_active = ?", true)
	}
	if f.AssignedCounselorID != nil {
		q = q.Where("student_profiles.assigned_counselor_id = ?", *f.AssignedCounselorID)
	}
	return q
}

func (s *Gorm) ListStudents(ctx context.Context, f UserFilter, page Page) ([]models.StudentProfile, int64, error) {
	page = page.Normalize()
	var total int64
	if err := s.studentQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, mapError(err, "count students")
	}
	var profiles []models.StudentProfile
	err := s.studentQuery(ctx, f).
		Preload("User").
		Order("users.full_name asc, student_profiles.user_id asc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, mapError(err, "list students")
	}
	return profiles, total, nil
}

func (s *Gorm) ListCounselors(ctx context.Context, activeOnly bool) ([]models.CounselorProfile, error) {
	q := conn(ctx, s.db).Model(&models.CounselorProfile{}).
		Joins("JOIN users ON users.id = counselor_profiles.user_id").
		Preload("User").
		Order("users.full_name asc, counselor_profiles.user_id asc")
	if activeOnly {
		q = q.Where("users.is_active = ?", true)
	}
	var profiles []models.CounselorProfile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, mapError(err, "list counselors")
	}
	return profiles, nil
}

func (s *Gorm) CountUsers(ctx context.Context, f UserFilter) (int64, error) {
	var count int64
	var q *gorm.DB
	if f.AssignedCounselorID != nil {
		q = s.studentQuery(ctx, f)
	} else {
		q = conn(ctx, s.db).Model(&models.User{})
		if f.Role != nil {
			q = q.Where("role = ?", *f.Role)
		}
		if f.ActiveOnly {
			q = q.Where("is_active = ?", true)
		}
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, mapError(err, "count users")
	}
	return count, nil
}

func (s *Gorm) GroupStudents(ctx context.Context, f UserFilter, field StudentGroupField) (map[string]int64, error) {
	var column string
	switch field {
	case GroupByDepartment:
		column = "COALESCE(NULLIF(student_profiles.department, ''), 'Unspecified')"
	case GroupBySemester:
		column = "student_profiles.current_semester::text"
	default:
		return nil, fmt.Errorf("group students: unsupported field %q", field)
	}

	var rows []struct {
		Key   string
		Count int64
	}
	err := s.studentQuery(ctx, f).
		Select(column + " AS key, COUNT(*) AS count").
		Group("key").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError(err, "group students")
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

func (s *Gorm) TopStudents(ctx context.Context, f UserFilter, limit int) ([]models.StudentProfile, error) {
	var profiles []models.StudentProfile
	err := s.studentQuery(ctx, f).
		Preload("User").
		Where("student_profiles.total_sessions > 0").
		Order("student_profiles.total_sessions desc, users.full_name asc, student_profiles.user_id asc").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, mapError(err, "top students")
	}
	return profiles, nil
}
