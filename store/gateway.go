package store

import (
	"context"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
)

// Gateway is the full persistence surface. Gorm backs it with postgres and
// Memory keeps it in process for tests and DATABASE_DRIVER=memory.
type Gateway interface {
	AssignCounselor(ctx context.Context, studentID, counselorID uuid.UUID) error
	CountUsers(ctx context.Context, f UserFilter) (int64, error)
	CreateUser(ctx context.Context, user *models.User, student *models.StudentProfile, counselor *models.CounselorProfile) error
	GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GroupStudents(ctx context.Context, f UserFilter, field StudentGroupField) (map[string]int64, error)
	ListCounselors(ctx context.Context, activeOnly bool) ([]models.CounselorProfile, error)
	ListStudents(ctx context.Context, f UserFilter, page Page) ([]models.StudentProfile, int64, error)
	RecordCompletedSession(ctx context.Context, studentID uuid.UUID, at time.Time) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	TopStudents(ctx context.Context, f UserFilter, limit int) ([]models.StudentProfile, error)

	AverageDuration(ctx context.Context, f AppointmentFilter) (float64, error)
	CountAppointments(ctx context.Context, f AppointmentFilter) (int64, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	FindSlotConflict(ctx context.Context, q SlotQuery) (*models.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	GroupAppointments(ctx context.Context, f AppointmentFilter, field AppointmentGroupField) (map[string]int64, error)
	ListAppointments(ctx context.Context, f AppointmentFilter, page Page) ([]models.Appointment, int64, error)
	UpdateAppointment(ctx context.Context, a *models.Appointment) error

	CountUnreadMessages(ctx context.Context, receiverID uuid.UUID, conversationID *uuid.UUID) (int64, error)
	CreateConversation(ctx context.Context, c *models.Conversation) error
	CreateMessage(ctx context.Context, m *models.Message) error
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	FindConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, page Page) ([]models.Message, int64, error)
	MarkMessagesRead(ctx context.Context, conversationID, receiverID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)

	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, f NotificationFilter, page Page) ([]models.Notification, int64, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error

	CreateNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, id uuid.UUID) error
	GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error)
	ListNotes(ctx context.Context, f NoteFilter, page Page) ([]models.Note, int64, error)
	UpdateNote(ctx context.Context, n *models.Note) error
}

// TxRunner runs fn atomically against the same backend.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	_ Gateway  = (*Gorm)(nil)
	_ Gateway  = (*Memory)(nil)
	_ TxRunner = (*TxManager)(nil)
	_ TxRunner = (*Memory)(nil)
)
