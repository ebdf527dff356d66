package store_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	config "github.com/anjiri1684/counsel_connect/configs"
	"github.com/anjiri1684/counsel_connect/database"
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type repository = store.Gateway

func TestMemory(t *testing.T) {
	runContract(t, func(t *testing.T) repository { return store.NewMemory() })
}

func TestGorm(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres integration test")
	}
	dsn := startPostgres(t)
	db, err := database.Connect(config.DatabaseConfig{URL: dsn, MaxOpenConns: 5, MaxIdleConns: 1, ConnLifetime: time.Minute})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	runContract(t, func(t *testing.T) repository {
		require.NoError(t, db.Exec("TRUNCATE users, student_profiles, counselor_profiles, appointments, notifications, messages, conversations, notes").Error)
		return store.NewGorm(db)
	})
}

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

func startPostgres(t *testing.T) string {
	t.Helper()
	pgOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:17-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     "counsel",
					"POSTGRES_PASSWORD": "counsel",
					"POSTGRES_DB":       "counsel_test",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			pgErr = fmt.Errorf("start postgres: %w", err)
			return
		}
		host, err := container.Host(ctx)
		if err != nil {
			pgErr = err
			return
		}
		port, err := container.MappedPort(ctx, "5432")
		if err != nil {
			pgErr = err
			return
		}
		pgDSN = fmt.Sprintf("postgres://counsel:counsel@%s:%s/counsel_test?sslmode=disable", host, port.Port())
	})
	if pgErr != nil {
		t.Skipf("postgres unavailable: %v", pgErr)
	}
	return pgDSN
}

type seeded struct {
	counselor, student, student2 models.User
}

func seed(t *testing.T, repo repository) seeded {
	t.Helper()
	ctx := context.Background()
	add := func(name string, role models.Role, sp *models.StudentProfile, cp *models.CounselorProfile) models.User {
		u := &models.User{FullName: name, Email: uuid.NewString() + "@uni.test", Password: "x", Role: role, IsActive: true}
		require.NoError(t, repo.CreateUser(ctx, u, sp, cp))
		return *u
	}
	var s seeded
	s.counselor = add("Dr. Otieno", models.RoleCounselor, nil, &models.CounselorProfile{MaxStudents: 10})
	s.student = add("Amina", models.RoleStudent, &models.StudentProfile{StudentNumber: "S-1", CurrentSemester: 2, AssignedCounselorID: &s.counselor.ID}, nil)
	s.student2 = add("Brian", models.RoleStudent, &models.StudentProfile{StudentNumber: "S-2", CurrentSemester: 1, AssignedCounselorID: &s.counselor.ID}, nil)
	return s
}

func appointment(s seeded, student models.User, date, at string) *models.Appointment {
	d, _ := time.Parse("2006-01-02", date)
	return &models.Appointment{
		StudentID:   student.ID,
		CounselorID: s.counselor.ID,
		Date:        d,
		Time:        at,
		Duration:    45,
		Type:        models.TypeAcademic,
		Status:      models.StatusPending,
	}
}

func runContract(t *testing.T, newRepo func(t *testing.T) repository) {
	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		s := seed(t, repo)
		ctx := context.Background()

		got, err := repo.GetUserByEmail(ctx, strings.ToUpper(s.student.Email))
		require.NoError(t, err)
		assert.Equal(t, s.student.ID, got.ID)
		_, err = repo.GetUserByEmail(ctx, "missing@uni.test")
		assert.ErrorIs(t, err, store.ErrNotFound)

		dup := &models.User{FullName: "Dup", Email: s.student.Email, Password: "x", Role: models.RoleStudent, IsActive: true}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup, nil, nil), store.ErrDuplicate)

		n, err := repo.CountUsers(ctx, store.UserFilter{AssignedCounselorID: &s.counselor.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		require.NoError(t, repo.RecordCompletedSession(ctx, s.student2.ID, time.Now()))
		top, err := repo.TopStudents(ctx, store.UserFilter{}, 5)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, s.student2.ID, top[0].UserID)
		assert.Equal(t, 1, top[0].TotalSessions)
		assert.ErrorIs(t, repo.RecordCompletedSession(ctx, uuid.New(), time.Now()), store.ErrNotFound)
	})

	t.Run("active slot is unique", func(t *testing.T) {
		repo := newRepo(t)
		s := seed(t, repo)
		ctx := context.Background()

		first := appointment(s, s.student, "2025-06-02", "09:00")
		require.NoError(t, repo.CreateAppointment(ctx, first))
		assert.NotEqual(t, uuid.Nil, first.ID)

		// same counselor, same slot, different student
		err := repo.CreateAppointment(ctx, appointment(s, s.student2, "2025-06-02", "09:00"))
		assert.ErrorIs(t, err, store.ErrSlotTaken)

		conflict, err := repo.FindSlotConflict(ctx, store.SlotQuery{Date: first.Date, Time: "09:00", CounselorID: s.counselor.ID, StudentID: s.student2.ID})
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, first.ID, conflict.ID)

		conflict, err = repo.FindSlotConflict(ctx, store.SlotQuery{Date: first.Date, Time: "09:00", CounselorID: s.counselor.ID, StudentID: s.student.ID, ExcludeID: &first.ID})
		require.NoError(t, err)
		assert.Nil(t, conflict)

		// cancelling frees the slot
		first.Status = models.StatusCancelled
		first.UpdatedAt = time.Now()
		require.NoError(t, repo.UpdateAppointment(ctx, first))
		second := appointment(s, s.student2, "2025-06-02", "09:00")
		require.NoError(t, repo.CreateAppointment(ctx, second))

		// and reopening the cancelled one now collides
		first.Status = models.StatusPending
		assert.ErrorIs(t, repo.UpdateAppointment(ctx, first), store.ErrSlotTaken)

		loaded, err := repo.GetAppointment(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "Brian", loaded.Student.FullName)
		assert.Equal(t, "Dr. Otieno", loaded.Counselor.FullName)
	})

	t.Run("appointment queries", func(t *testing.T) {
		repo := newRepo(t)
		s := seed(t, repo)
		ctx := context.Background()

		for _, a := range []*models.Appointment{
			appointment(s, s.student, "2025-05-10", "09:00"),
			appointment(s, s.student, "2025-06-10", "09:00"),
			appointment(s, s.student2, "2025-06-11", "10:00"),
		} {
			require.NoError(t, repo.CreateAppointment(ctx, a))
		}
		done := appointment(s, s.student2, "2025-06-12", "10:00")
		done.Status, done.Duration = models.StatusCompleted, 90
		require.NoError(t, repo.CreateAppointment(ctx, done))

		items, total, err := repo.ListAppointments(ctx, store.AppointmentFilter{StudentID: &s.student.ID}, store.Page{Page: 1, Limit: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, items, 1)
		assert.Equal(t, "2025-05-10", items[0].Date.Format("2006-01-02"))

		from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		_, total, err = repo.ListAppointments(ctx, store.AppointmentFilter{From: &from}, store.Page{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)

		byMonth, err := repo.GroupAppointments(ctx, store.AppointmentFilter{}, store.GroupByMonth)
		require.NoError(t, err)
		assert.EqualValues(t, 1, byMonth["2025-05"])
		assert.EqualValues(t, 3, byMonth["2025-06"])

		byStatus, err := repo.GroupAppointments(ctx, store.AppointmentFilter{}, store.GroupByStatus)
		require.NoError(t, err)
		assert.EqualValues(t, 3, byStatus[string(models.StatusPending)])
		assert.EqualValues(t, 1, byStatus[string(models.StatusCompleted)])

		avg, err := repo.AverageDuration(ctx, store.AppointmentFilter{Statuses: []models.AppointmentStatus{models.StatusCompleted}})
		require.NoError(t, err)
		assert.InDelta(t, 90.0, avg, 0.001)
	})

	t.Run("shared slot pages without gaps", func(t *testing.T) {
		repo := newRepo(t)
		s := seed(t, repo)
		ctx := context.Background()

		want := map[uuid.UUID]bool{}
		for i := 0; i < 7; i++ {
			a := appointment(s, s.student, "2025-07-01", "10:00")
			a.Status = models.StatusCancelled
			require.NoError(t, repo.CreateAppointment(ctx, a))
			want[a.ID] = true
		}

		f := store.AppointmentFilter{Statuses: []models.AppointmentStatus{models.StatusCancelled}}
		got := map[uuid.UUID]bool{}
		var last uuid.UUID
		for page := 1; page <= 3; page++ {
			items, total, err := repo.ListAppointments(ctx, f, store.Page{Page: page, Limit: 3})
			require.NoError(t, err)
			assert.EqualValues(t, 7, total)
			for _, a := range items {
				assert.False(t, got[a.ID], "appointment listed twice")
				assert.Negative(t, bytes.Compare(last[:], a.ID[:]), "ids out of order")
				got[a.ID] = true
				last = a.ID
			}
		}
		assert.Equal(t, want, got)
	})

	t.Run("conversation pair is unique", func(t *testing.T) {
		repo := newRepo(t)
		s := seed(t, repo)
		ctx := context.Background()

		c := &models.Conversation{ParticipantLowID: s.student.ID, ParticipantHighID: s.counselor.ID}
		require.NoError(t, repo.CreateConversation(ctx, c))

		reversed := &models.Conversation{ParticipantLowID: s.counselor.ID, ParticipantHighID: s.student.ID}
		assert.ErrorIs(t, repo.CreateConversation(ctx, reversed), store.ErrDuplicate)

		found, err := repo.FindConversation(ctx, s.counselor.ID, s.student.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
	})

	t.Run("notifications belong to their recipient", func(t *testing.T) {
		repo := newRepo(t)
		s := seed(t, repo)
		ctx := context.Background()

		n := &models.Notification{UserID: s.student.ID, Type: models.NotificationNewMessage, Title: "hi"}
		require.NoError(t, repo.CreateNotification(ctx, n))

		assert.ErrorIs(t, repo.MarkNotificationRead(ctx, s.counselor.ID, n.ID, time.Now()), store.ErrNotFound)
		require.NoError(t, repo.MarkNotificationRead(ctx, s.student.ID, n.ID, time.Now()))

		count, err := repo.CountUnreadNotifications(ctx, s.student.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
