package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	repo *store.Memory

	chair      models.User
	counselor  models.User
	counselor2 models.User
	student    models.User
	student2   models.User
	stranger   models.User
}

// newFixture seeds a chairperson, two counselors and three students. student
// and student2 are assigned to counselor; stranger to counselor2.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: store.NewMemory()}

	f.chair = f.addUser(t, "Grace Chair", models.RoleChairperson, nil, nil)
	f.counselor = f.addUser(t, "Dr. Otieno", models.RoleCounselor, nil,
		&models.CounselorProfile{Title: "Senior Counselor", Specializations: "Career, Anxiety", MaxStudents: 30})
	f.counselor2 = f.addUser(t, "Dr. Wanjiru", models.RoleCounselor, nil,
		&models.CounselorProfile{Specializations: "academic"})
	f.student = f.addUser(t, "Amina Yusuf", models.RoleStudent,
		&models.StudentProfile{StudentNumber: "S-001", Department: "Computer Science", CurrentSemester: 3, AssignedCounselorID: &f.counselor.ID}, nil)
	f.student2 = f.addUser(t, "Brian Kamau", models.RoleStudent,
		&models.StudentProfile{StudentNumber: "S-002", Department: "Law", CurrentSemester: 1, AssignedCounselorID: &f.counselor.ID}, nil)
	f.stranger = f.addUser(t, "Chloe Njeri", models.RoleStudent,
		&models.StudentProfile{StudentNumber: "S-003", CurrentSemester: 5, AssignedCounselorID: &f.counselor2.ID}, nil)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role, sp *models.StudentProfile, cp *models.CounselorProfile) models.User {
	t.Helper()
	u := &models.User{
		FullName: name,
		Email:    uuid.NewString() + "@uni.test",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, f.repo.CreateUser(context.Background(), u, sp, cp))
	return *u
}

func actorOf(u models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) appointments() *AppointmentService {
	s := NewAppointmentService(discardLogger(), f.repo, f.repo, f.repo)
	s.now = func() time.Time { return fixedNow }
	return s
}

func (f *fixture) book(t *testing.T, actor Actor, student, counselor models.User, date, at string) *models.Appointment {
	t.Helper()
	appt, _, err := f.appointments().Create(context.Background(), actor, CreateAppointmentInput{
		StudentID:   student.ID,
		CounselorID: counselor.ID,
		Date:        date,
		Time:        at,
		Type:        "counseling",
	})
	require.NoError(t, err)
	return appt
}

// recordingSink captures emitted notifications; fail makes every Emit report failure.
type recordingSink struct {
	events []Event
	fail   bool
	panic  bool
}

func (s *recordingSink) Emit(_ context.Context, recipient uuid.UUID, typ models.NotificationType, title, message string, relatedID *uuid.UUID, relatedType string) *models.Notification {
	if s.panic {
		panic("sink exploded")
	}
	s.events = append(s.events, Event{Recipient: recipient, Type: typ, Title: title, Message: message, RelatedID: relatedID, RelatedType: relatedType})
	if s.fail {
		return nil
	}
	return &models.Notification{UserID: recipient, Type: typ}
}

func recipients(events []Event) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		out = append(out, e.Recipient)
	}
	return out
}
