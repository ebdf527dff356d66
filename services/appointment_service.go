package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
)

const (
	maxAppointmentDuration = 8 * 60
	dateLayout             = "2006-01-02"
)

type appointmentRepo interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	FindSlotConflict(ctx context.Context, q store.SlotQuery) (*models.Appointment, error)
	ListAppointments(ctx context.Context, f store.AppointmentFilter, page store.Page) ([]models.Appointment, int64, error)
}

type participantRepo interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error)
	RecordCompletedSession(ctx context.Context, studentID uuid.UUID, at time.Time) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AppointmentService owns the appointment lifecycle and slot conflict rules.
type AppointmentService struct {
	appointments appointmentRepo
	users        participantRepo
	tx           txRunner
	log          *slog.Logger
	now          func() time.Time
}

func NewAppointmentService(log *slog.Logger, appointments appointmentRepo, users participantRepo, tx txRunner) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		users:        users,
		tx:           tx,
		log:          log.With("service", "appointment"),
		now:          time.Now,
	}
}

type CreateAppointmentInput struct {
	StudentID   uuid.UUID
	CounselorID uuid.UUID
	Date        string
	Time        string
	Type        string
	Duration    *int
	Location    string
	Notes       string
	// Status is the requested initial status; empty means PENDING.
	Status string
}

type UpdateAppointmentInput struct {
	Date     *string
	Time     *string
	Duration *int
	Location *string
	Type     *string
	Notes    *string
}

type ListAppointmentsInput struct {
	Statuses    []string
	Types       []string
	StartDate   string
	EndDate     string
	Timeframe   string
	StudentID   *uuid.UUID
	CounselorID *uuid.UUID
	Page        store.Page
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return models.DateOnly(t), nil
}

func validDuration(d int) bool {
	return d > 0 && d <= maxAppointmentDuration
}

func (s *AppointmentService) Create(ctx context.Context, actor Actor, in CreateAppointmentInput) (*models.Appointment, []Event, error) {
	var missing []string
	if in.StudentID == uuid.Nil {
		missing = append(missing, "studentId")
	}
	if in.CounselorID == uuid.Nil {
		missing = append(missing, "counselorId")
	}
	if strings.TrimSpace(in.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(in.Time) == "" {
		missing = append(missing, "time")
	}
	if strings.TrimSpace(in.Type) == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return nil, nil, Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, nil, Validation("%s", err.Error())
	}
	typ, ok := models.ParseAppointmentType(in.Type)
	if !ok {
		return nil, nil, Validation("invalid appointment type %q", in.Type)
	}
	status := models.StatusPending
	if in.Status != "" {
		st, ok := models.ParseAppointmentStatus(in.Status)
		if !ok || !st.IsActive() {
			return nil, nil, Validation("initial status must be pending or scheduled")
		}
		status = st
	}
	duration := models.DefaultAppointmentDuration
	if in.Duration != nil {
		if !validDuration(*in.Duration) {
			return nil, nil, Validation("duration must be between 1 and %d minutes", maxAppointmentDuration)
		}
		duration = *in.Duration
	}

	student, err := s.participant(ctx, in.StudentID, models.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	counselor, err := s.participant(ctx, in.CounselorID, models.RoleCounselor)
	if err != nil {
		return nil, nil, err
	}

	if !actor.IsOverride() {
		profile, err := s.users.GetStudentProfile(ctx, student.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, Forbidden("student has no assigned counselor")
		}
		if err != nil {
			return nil, nil, Internal(err, "failed to load student profile")
		}
		if !actor.CanBook(profile, counselor.ID) {
			return nil, nil, Forbidden("appointments can only be booked between a student and their assigned counselor")
		}
	}

	appt := &models.Appointment{
		StudentID:   student.ID,
		CounselorID: counselor.ID,
		Date:        date,
		Time:        strings.TrimSpace(in.Time),
		Duration:    duration,
		Type:        typ,
		Status:      status,
		Location:    strings.TrimSpace(in.Location),
		Notes:       strings.TrimSpace(in.Notes),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkSlot(ctx, appt, nil); err != nil {
			return err
		}
		return s.appointments.CreateAppointment(ctx, appt)
	})
	if err != nil {
		return nil, nil, s.writeError(err, "failed to create appointment")
	}
	appt.Student, appt.Counselor = *student, *counselor

	s.log.InfoContext(ctx, "appointment created",
		"appointment_id", appt.ID, "student_id", appt.StudentID, "counselor_id", appt.CounselorID, "status", appt.Status)

	when := describeSlot(appt)
	events := []Event{
		appointmentEvent(appt, appt.StudentID, models.NotificationAppointmentCreated,
			"New appointment", fmt.Sprintf("Your appointment with %s is booked for %s.", counselor.FullName, when)),
		appointmentEvent(appt, appt.CounselorID, models.NotificationAppointmentCreated,
			"New appointment", fmt.Sprintf("%s has an appointment with you on %s.", student.FullName, when)),
	}
	return appt, events, nil
}

func (s *AppointmentService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessAppointment(appt) {
		return nil, Forbidden("you are not a participant of this appointment")
	}
	return appt, nil
}

// Reschedule updates non-status fields.
func (s *AppointmentService) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, in UpdateAppointmentInput) (*models.Appointment, []Event, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccessAppointment(appt) {
		return nil, nil, Forbidden("you are not a participant of this appointment")
	}
	if appt.Status.IsTerminal() && !actor.IsOverride() {
		return nil, nil, TerminalState("cannot update a %s appointment", strings.ToLower(string(appt.Status)))
	}

	slotChanged := false
	if in.Date != nil {
		date, err := ParseDate(*in.Date)
		if err != nil {
			return nil, nil, Validation("%s", err.Error())
		}
		slotChanged = slotChanged || !date.Equal(appt.Date)
		appt.Date = date
	}
	if in.Time != nil {
		t := strings.TrimSpace(*in.Time)
		if t == "" {
			return nil, nil, Validation("time must not be empty")
		}
		slotChanged = slotChanged || t != appt.Time
		appt.Time = t
	}
	if in.Type != nil {
		typ, ok := models.ParseAppointmentType(*in.Type)
		if !ok {
			return nil, nil, Validation("invalid appointment type %q", *in.Type)
		}
		appt.Type = typ
	}
	if in.Duration != nil {
		if !validDuration(*in.Duration) {
			return nil, nil, Validation("duration must be between 1 and %d minutes", maxAppointmentDuration)
		}
		appt.Duration = *in.Duration
	}
	if in.Location != nil {
		appt.Location = strings.TrimSpace(*in.Location)
	}
	if in.Notes != nil {
		appt.Notes = strings.TrimSpace(*in.Notes)
	}
	appt.UpdatedAt = s.now()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if slotChanged {
			if err := s.checkSlot(ctx, appt, &appt.ID); err != nil {
				return err
			}
		}
		return s.appointments.UpdateAppointment(ctx, appt)
	})
	if err != nil {
		return nil, nil, s.writeError(err, "failed to update appointment")
	}

	msg := fmt.Sprintf("Your appointment has been updated to %s.", describeSlot(appt))
	events := []Event{
		appointmentEvent(appt, appt.StudentID, models.NotificationAppointmentUpdated, "Appointment updated", msg),
	}
	if actor.UserID != appt.CounselorID {
		events = append(events,
			appointmentEvent(appt, appt.CounselorID, models.NotificationAppointmentUpdated, "Appointment updated", msg))
	}
	return appt, events, nil
}

// UpdateStatus applies a state machine transition.
func (s *AppointmentService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, rawStatus string) (*models.Appointment, []Event, error) {
	target, ok := models.ParseAppointmentStatus(rawStatus)
	if !ok {
		return nil, nil, Validation("invalid status %q", rawStatus)
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccessAppointment(appt) {
		return nil, nil, Forbidden("you are not a participant of this appointment")
	}
	if target == models.StatusCompleted && !actor.CanMarkCompleted(appt) {
		return nil, nil, Forbidden("only the appointment's counselor can mark it completed")
	}
	if appt.Status == target {
		return nil, nil, AlreadyInStatus("appointment is already %s", strings.ToLower(string(target)))
	}
	from := appt.Status
	if from.IsTerminal() && !actor.IsOverride() {
		return nil, nil, TerminalState("cannot update a %s appointment", strings.ToLower(string(from)))
	}
	if !actor.IsOverride() && !ordinaryTransition(from, target) {
		return nil, nil, Validation("cannot move appointment from %s to %s",
			strings.ToLower(string(from)), strings.ToLower(string(target)))
	}

	now := s.now()
	appt.Status = target
	appt.UpdatedAt = now

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if from.IsTerminal() && target.IsActive() {
			if err := s.checkSlot(ctx, appt, &appt.ID); err != nil {
				return err
			}
		}
		if err := s.appointments.UpdateAppointment(ctx, appt); err != nil {
			return err
		}
		if target == models.StatusCompleted {
			return s.users.RecordCompletedSession(ctx, appt.StudentID, now)
		}
		return nil
	})
	if err != nil {
		return nil, nil, s.writeError(err, "failed to update appointment status")
	}

	s.log.InfoContext(ctx, "appointment status changed",
		"appointment_id", appt.ID, "from", from, "to", target, "actor_id", actor.UserID)

	return appt, s.statusEvents(actor, appt), nil
}

func ordinaryTransition(from, to models.AppointmentStatus) bool {
	switch to {
	case models.StatusScheduled:
		return from == models.StatusPending
	case models.StatusCompleted, models.StatusCancelled:
		return from.IsActive()
	}
	return false
}

func (s *AppointmentService) statusEvents(actor Actor, appt *models.Appointment) []Event {
	when := describeSlot(appt)
	switch appt.Status {
	case models.StatusCompleted:
		return []Event{appointmentEvent(appt, appt.StudentID, models.NotificationAppointmentCompleted,
			"Appointment completed", fmt.Sprintf("Your appointment on %s has been marked completed.", when))}
	case models.StatusScheduled:
		return []Event{appointmentEvent(appt, appt.StudentID, models.NotificationAppointmentConfirmed,
			"Appointment confirmed", fmt.Sprintf("Your appointment on %s has been confirmed.", when))}
	case models.StatusCancelled:
		msg := fmt.Sprintf("The appointment on %s has been cancelled.", when)
		var events []Event
		for _, id := range counterparts(actor, appt) {
			events = append(events, appointmentEvent(appt, id, models.NotificationAppointmentCancelled, "Appointment cancelled", msg))
		}
		return events
	}
	msg := fmt.Sprintf("The appointment on %s is now %s.", when, strings.ToLower(string(appt.Status)))
	var events []Event
	for _, id := range counterparts(actor, appt) {
		events = append(events, appointmentEvent(appt, id, models.NotificationAppointmentUpdated, "Appointment updated", msg))
	}
	return events
}

// Delete removes the appointment. Completed appointments are kept unless
// the actor is the override role.
func (s *AppointmentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) ([]Event, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessAppointment(appt) {
		return nil, Forbidden("you are not a participant of this appointment")
	}
	if appt.Status == models.StatusCompleted && !actor.IsOverride() {
		return nil, TerminalState("cannot delete a completed appointment")
	}
	if err := s.appointments.DeleteAppointment(ctx, id); err != nil {
		return nil, s.writeError(err, "failed to delete appointment")
	}

	s.log.InfoContext(ctx, "appointment deleted", "appointment_id", id, "actor_id", actor.UserID)

	msg := fmt.Sprintf("The appointment on %s has been removed.", describeSlot(appt))
	var events []Event
	for _, uid := range counterparts(actor, appt) {
		events = append(events, Event{
			Recipient:   uid,
			Type:        models.NotificationAppointmentDeleted,
			Title:       "Appointment removed",
			Message:     msg,
			RelatedType: models.RelatedAppointment,
		})
	}
	return events, nil
}

// List returns appointments visible to actor, ordered by date.
func (s *AppointmentService) List(ctx context.Context, actor Actor, in ListAppointmentsInput) ([]models.Appointment, int64, error) {
	var f store.AppointmentFilter
	switch actor.Role {
	case models.RoleStudent:
		f.StudentID = &actor.UserID
	case models.RoleCounselor:
		f.CounselorID = &actor.UserID
	case models.RoleChairperson:
		f.StudentID, f.CounselorID = in.StudentID, in.CounselorID
	default:
		return nil, 0, Forbidden("unknown role")
	}

	for _, raw := range in.Statuses {
		st, ok := models.ParseAppointmentStatus(raw)
		if !ok {
			return nil, 0, Validation("invalid status %q", raw)
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, raw := range in.Types {
		typ, ok := models.ParseAppointmentType(raw)
		if !ok {
			return nil, 0, Validation("invalid appointment type %q", raw)
		}
		f.Types = append(f.Types, typ)
	}

	from, to, err := ResolveRange(in.Timeframe, in.StartDate, in.EndDate, s.now())
	if err != nil {
		return nil, 0, err
	}
	f.From, f.To = from, to

	items, total, err := s.appointments.ListAppointments(ctx, f, in.Page)
	if err != nil {
		return nil, 0, Internal(err, "failed to list appointments")
	}
	return items, total, nil
}

// DueReminders builds reminder events for every scheduled appointment on day.
func (s *AppointmentService) DueReminders(ctx context.Context, day time.Time) ([]Event, error) {
	day = models.DateOnly(day)
	f := store.AppointmentFilter{
		Statuses: []models.AppointmentStatus{models.StatusScheduled},
		From:     &day,
		To:       &day,
	}

	var events []Event
	for page := 1; ; page++ {
		items, total, err := s.appointments.ListAppointments(ctx, f, store.Page{Page: page, Limit: store.MaxLimit})
		if err != nil {
			return nil, fmt.Errorf("list scheduled appointments: %w", err)
		}
		for i := range items {
			appt := &items[i]
			when := describeSlot(appt)
			events = append(events,
				appointmentEvent(appt, appt.StudentID, models.NotificationAppointmentReminder, "Appointment reminder",
					fmt.Sprintf("Reminder: you meet %s on %s.", appt.Counselor.FullName, when)),
				appointmentEvent(appt, appt.CounselorID, models.NotificationAppointmentReminder, "Appointment reminder",
					fmt.Sprintf("Reminder: you meet %s on %s.", appt.Student.FullName, when)),
			)
		}
		if int64(page*store.MaxLimit) >= total || len(items) == 0 {
			break
		}
	}
	return events, nil
}

func (s *AppointmentService) participant(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	label := strings.ToLower(string(role))
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("%s not found", label)
	}
	if err != nil {
		return nil, Internal(err, "failed to load "+label)
	}
	if user.Role != role {
		return nil, Validation("user %s is not a %s", id, label)
	}
	return user, nil
}

func (s *AppointmentService) load(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.appointments.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("appointment not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load appointment")
	}
	return appt, nil
}

// checkSlot reports a clear conflict before the write. The storage slot
// indexes still guard the write itself.
func (s *AppointmentService) checkSlot(ctx context.Context, appt *models.Appointment, exclude *uuid.UUID) error {
	other, err := s.appointments.FindSlotConflict(ctx, store.SlotQuery{
		Date:        appt.Date,
		Time:        appt.Time,
		CounselorID: appt.CounselorID,
		StudentID:   appt.StudentID,
		ExcludeID:   exclude,
	})
	if err != nil {
		return err
	}
	if other == nil {
		return nil
	}
	if other.CounselorID == appt.CounselorID {
		return Conflict("counselor already has an appointment on %s", describeSlot(appt))
	}
	return Conflict("student already has an appointment on %s", describeSlot(appt))
}

func (s *AppointmentService) writeError(err error, message string) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, store.ErrSlotTaken):
		return Conflict("this time slot is already booked")
	case errors.Is(err, store.ErrNotFound):
		return NotFound("appointment not found")
	}
	return Internal(err, message)
}

func describeSlot(a *models.Appointment) string {
	return a.Date.Format(dateLayout) + " at " + a.Time
}

func appointmentEvent(a *models.Appointment, recipient uuid.UUID, typ models.NotificationType, title, message string) Event {
	id := a.ID
	return Event{
		Recipient:   recipient,
		Type:        typ,
		Title:       title,
		Message:     message,
		RelatedID:   &id,
		RelatedType: models.RelatedAppointment,
	}
}

// counterparts is who to tell about actor's change: the other participant,
// or both participants when the override role acted.
func counterparts(actor Actor, a *models.Appointment) []uuid.UUID {
	if a.IsParticipant(actor.UserID) {
		return []uuid.UUID{a.Counterpart(actor.UserID)}
	}
	return []uuid.UUID{a.StudentID, a.CounselorID}
}
