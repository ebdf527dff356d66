package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/anjiri1684/counsel_connect/metrics"
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
)

// Event is a notification produced by a committed state change. Lifecycle
// operations return events instead of emitting them so that delivery can
// never affect the outcome of the mutation.
type Event struct {
	Recipient   uuid.UUID
	Type        models.NotificationType
	Title       string
	Message     string
	RelatedID   *uuid.UUID
	RelatedType string
}

// Sink records a notification. It never fails the caller: errors are logged
// and reported as a nil result.
type Sink interface {
	Emit(ctx context.Context, recipient uuid.UUID, typ models.NotificationType, title, message string, relatedID *uuid.UUID, relatedType string) *models.Notification
}

// Mailer is an optional e-mail channel.
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error
}

type notificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, f store.NotificationFilter, page store.Page) ([]models.Notification, int64, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type userLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// StoreSink writes notifications to the inbox table.
type StoreSink struct {
	repo notificationRepo
	log  *slog.Logger
}

func NewStoreSink(log *slog.Logger, repo notificationRepo) *StoreSink {
	return &StoreSink{repo: repo, log: log.With("component", "notification_sink")}
}

func (s *StoreSink) Emit(ctx context.Context, recipient uuid.UUID, typ models.NotificationType, title, message string, relatedID *uuid.UUID, relatedType string) *models.Notification {
	n := &models.Notification{
		UserID:      recipient,
		Type:        typ,
		Title:       title,
		Message:     message,
		RelatedID:   relatedID,
		RelatedType: relatedType,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.log.WarnContext(ctx, "notification not recorded",
			"recipient", recipient, "type", typ, "error", err)
		return nil
	}
	return n
}

// Dispatcher delivers post-commit events. Each event is delivered
// independently; no ordering is guaranteed between recipients.
type Dispatcher struct {
	sink    Sink
	users   userLookup
	mailer  Mailer
	metrics *metrics.Metrics
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher. mailer and m may be nil.
func NewDispatcher(log *slog.Logger, sink Sink, users userLookup, mailer Mailer, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		users:   users,
		mailer:  mailer,
		metrics: m,
		log:     log.With("component", "dispatcher"),
	}
}

// Dispatch delivers events concurrently and returns when all attempts finish.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev Event) {
			defer wg.Done()
			d.deliver(ctx, ev)
		}(ev)
	}
	wg.Wait()
}

// DispatchAsync delivers events in the background, detached from the
// request's cancellation. Wait blocks until every background delivery ends.
func (d *Dispatcher) DispatchAsync(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(ctx, events)
	}()
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.Notification(metrics.ResultFailed)
			d.log.ErrorContext(ctx, "notification delivery panicked", "type", ev.Type, "panic", r)
		}
	}()

	if ev.RelatedType == models.RelatedAppointment {
		d.metrics.AppointmentEvent(string(ev.Type))
	}

	if n := d.sink.Emit(ctx, ev.Recipient, ev.Type, ev.Title, ev.Message, ev.RelatedID, ev.RelatedType); n == nil {
		d.metrics.Notification(metrics.ResultFailed)
	} else {
		d.metrics.Notification(metrics.ResultStored)
	}

	if d.mailer != nil && emailed(ev.Type) {
		d.email(ctx, ev)
	}
}

func emailed(t models.NotificationType) bool {
	switch t {
	case models.NotificationAppointmentCreated,
		models.NotificationAppointmentCancelled,
		models.NotificationAppointmentReminder,
		models.NotificationCounselorAssigned:
		return true
	}
	return false
}

func (d *Dispatcher) email(ctx context.Context, ev Event) {
	user, err := d.users.GetUser(ctx, ev.Recipient)
	if err != nil {
		d.metrics.Notification(metrics.ResultMailErr)
		d.log.WarnContext(ctx, "email recipient lookup failed", "recipient", ev.Recipient, "error", err)
		return
	}
	body := fmt.Sprintf("<h2>%s</h2><p>Hi %s,</p><p>%s</p>",
		html.EscapeString(ev.Title), html.EscapeString(user.FullName), html.EscapeString(ev.Message))
	if err := d.mailer.Send(ctx, user.FullName, user.Email, ev.Title, body); err != nil {
		d.metrics.Notification(metrics.ResultMailErr)
		d.log.WarnContext(ctx, "email not sent", "recipient", ev.Recipient, "type", ev.Type, "error", err)
		return
	}
	d.metrics.Notification(metrics.ResultEmailed)
}

// NotificationService is the recipient's inbox.
type NotificationService struct {
	repo notificationRepo
	log  *slog.Logger
	now  func() time.Time
}

func NewNotificationService(log *slog.Logger, repo notificationRepo) *NotificationService {
	return &NotificationService{
		repo: repo,
		log:  log.With("service", "notification"),
		now:  time.Now,
	}
}

func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, page store.Page) ([]models.Notification, int64, error) {
	items, total, err := s.repo.ListNotifications(ctx, store.NotificationFilter{UserID: actor.UserID, UnreadOnly: unreadOnly}, page)
	if err != nil {
		return nil, 0, Internal(err, "failed to list notifications")
	}
	return items, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	n, err := s.repo.CountUnreadNotifications(ctx, actor.UserID)
	if err != nil {
		return 0, Internal(err, "failed to count notifications")
	}
	return n, nil
}

// MarkRead flips one notification; only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uuid.UUID) error {
	err := s.repo.MarkNotificationRead(ctx, actor.UserID, id, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return NotFound("notification not found")
	}
	if err != nil {
		return Internal(err, "failed to update notification")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	n, err := s.repo.MarkAllNotificationsRead(ctx, actor.UserID, s.now())
	if err != nil {
		return 0, Internal(err, "failed to update notifications")
	}
	return n, nil
}
