package store

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
)

// Memory is an in-process Persistence Gateway, selected with
// DATABASE_DRIVER=memory and used by the service and handler tests. It
// enforces the same uniqueness rules as the postgres schema, including the
// active slot indexes, under a single mutex.
type Memory struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]models.User
	students      map[uuid.UUID]models.StudentProfile
	counselors    map[uuid.UUID]models.CounselorProfile
	appointments  map[uuid.UUID]models.Appointment
	notifications map[uuid.UUID]models.Notification
	conversations map[uuid.UUID]models.Conversation
	messages      map[uuid.UUID]models.Message
	notes         map[uuid.UUID]models.Note
	now           func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[uuid.UUID]models.User),
		students:      make(map[uuid.UUID]models.StudentProfile),
		counselors:    make(map[uuid.UUID]models.CounselorProfile),
		appointments:  make(map[uuid.UUID]models.Appointment),
		notifications: make(map[uuid.UUID]models.Notification),
		conversations: make(map[uuid.UUID]models.Conversation),
		messages:      make(map[uuid.UUID]models.Message),
		notes:         make(map[uuid.UUID]models.Note),
		now:           time.Now,
	}
}

// RunInTx runs fn directly; each Memory call is individually atomic.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func paginate[T any](items []T, page Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Limit, len(items))
	return items[start:end]
}

// --- users ---

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (m *Memory) CreateUser(_ context.Context, user *models.User, student *models.StudentProfile, counselor *models.CounselorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := m.now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	if student != nil {
		student.UserID = user.ID
		student.User = models.User{}
		m.students[user.ID] = *student
	}
	if counselor != nil {
		counselor.UserID = user.ID
		counselor.User = models.User{}
		m.counselors[user.ID] = *counselor
	}
	return nil
}

func (m *Memory) SetUserActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.IsActive = active
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}

func (m *Memory) GetStudentProfile(_ context.Context, userID uuid.UUID) (*models.StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.students[userID]
	if !ok {
		return nil, fmt.Errorf("student profile %s: %w", userID, ErrNotFound)
	}
	p.User = m.users[userID]
	return &p, nil
}

func (m *Memory) AssignCounselor(_ context.Context, studentID, counselorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.students[studentID]
	if !ok {
		return fmt.Errorf("student profile %s: %w", studentID, ErrNotFound)
	}
	p.AssignedCounselorID = &counselorID
	m.students[studentID] = p
	return nil
}

func (m *Memory) RecordCompletedSession(_ context.Context, studentID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.students[studentID]
	if !ok {
		return fmt.Errorf("student profile %s: %w", studentID, ErrNotFound)
	}
	p.TotalSessions++
	p.LastSessionDate = &at
	m.students[studentID] = p
	return nil
}

func (m *Memory) filterStudents(f UserFilter) []models.StudentProfile {
	var out []models.StudentProfile
	for id, p := range m.students {
		u := m.users[id]
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		if f.AssignedCounselorID != nil && (p.AssignedCounselorID == nil || *p.AssignedCounselorID != *f.AssignedCounselorID) {
			continue
		}
		p.User = u
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].User.FullName != out[j].User.FullName {
			return out[i].User.FullName < out[j].User.FullName
		}
		return idLess(out[i].UserID, out[j].UserID)
	})
	return out
}

func (m *Memory) ListStudents(_ context.Context, f UserFilter, page Page) ([]models.StudentProfile, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.filterStudents(f)
	return paginate(all, page), int64(len(all)), nil
}

func (m *Memory) ListCounselors(_ context.Context, activeOnly bool) ([]models.CounselorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.CounselorProfile
	for id, p := range m.counselors {
		u := m.users[id]
		if activeOnly && !u.IsActive {
			continue
		}
		p.User = u
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].User.FullName != out[j].User.FullName {
			return out[i].User.FullName < out[j].User.FullName
		}
		return idLess(out[i].UserID, out[j].UserID)
	})
	return out, nil
}

func (m *Memory) CountUsers(_ context.Context, f UserFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f.AssignedCounselorID != nil {
		return int64(len(m.filterStudents(f))), nil
	}
	var n int64
	for _, u := range m.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		n++
	}
	return n, nil
}

func (m *Memory) GroupStudents(_ context.Context, f UserFilter, field StudentGroupField) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64)
	for _, p := range m.filterStudents(f) {
		switch field {
		case GroupByDepartment:
			key := p.Department
			if key == "" {
				key = "Unspecified"
			}
			out[key]++
		case GroupBySemester:
			out[strconv.Itoa(p.CurrentSemester)]++
		default:
			return nil, fmt.Errorf("group students: unsupported field %q", field)
		}
	}
	return out, nil
}

func (m *Memory) TopStudents(_ context.Context, f UserFilter, limit int) ([]models.StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.StudentProfile
	for _, p := range m.filterStudents(f) {
		if p.TotalSessions > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSessions != out[j].TotalSessions {
			return out[i].TotalSessions > out[j].TotalSessions
		}
		if out[i].User.FullName != out[j].User.FullName {
			return out[i].User.FullName < out[j].User.FullName
		}
		return idLess(out[i].UserID, out[j].UserID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- appointments ---

func (m *Memory) slotTaken(a models.Appointment) bool {
	if !a.Status.IsActive() {
		return false
	}
	for id, other := range m.appointments {
		if id == a.ID || !other.Status.IsActive() {
			continue
		}
		if !other.Date.Equal(a.Date) || other.Time != a.Time {
			continue
		}
		if other.CounselorID == a.CounselorID || other.StudentID == a.StudentID {
			return true
		}
	}
	return false
}

func (m *Memory) withParticipants(a models.Appointment) models.Appointment {
	a.Student = m.users[a.StudentID]
	a.Counselor = m.users[a.CounselorID]
	return a
}

func (m *Memory) CreateAppointment(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Date = models.DateOnly(a.Date)
	if m.slotTaken(*a) {
		return fmt.Errorf("create appointment: %w", ErrSlotTaken)
	}
	now := m.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	stored := *a
	stored.Student, stored.Counselor = models.User{}, models.User{}
	m.appointments[a.ID] = stored
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	a = m.withParticipants(a)
	return &a, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return fmt.Errorf("appointment %s: %w", a.ID, ErrNotFound)
	}
	a.Date = models.DateOnly(a.Date)
	if m.slotTaken(*a) {
		return fmt.Errorf("appointment %s: %w", a.ID, ErrSlotTaken)
	}
	stored := *a
	stored.Student, stored.Counselor = models.User{}, models.User{}
	m.appointments[a.ID] = stored
	return nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	delete(m.appointments, id)
	return nil
}

func (m *Memory) FindSlotConflict(_ context.Context, q SlotQuery) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	date := models.DateOnly(q.Date)
	for id, a := range m.appointments {
		if q.ExcludeID != nil && id == *q.ExcludeID {
			continue
		}
		if !a.Status.IsActive() || !a.Date.Equal(date) || a.Time != q.Time {
			continue
		}
		if a.CounselorID == q.CounselorID || a.StudentID == q.StudentID {
			a = m.withParticipants(a)
			return &a, nil
		}
	}
	return nil, nil
}

func (m *Memory) filterAppointments(f AppointmentFilter) []models.Appointment {
	var out []models.Appointment
	for _, a := range m.appointments {
		if f.StudentID != nil && a.StudentID != *f.StudentID {
			continue
		}
		if f.CounselorID != nil && a.CounselorID != *f.CounselorID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, a.Type) {
			continue
		}
		if f.From != nil && a.Date.Before(models.DateOnly(*f.From)) {
			continue
		}
		if f.To != nil && a.Date.After(models.DateOnly(*f.To)) {
			continue
		}
		out = append(out, m.withParticipants(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out
}

func (m *Memory) ListAppointments(_ context.Context, f AppointmentFilter, page Page) ([]models.Appointment, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.filterAppointments(f)
	return paginate(all, page), int64(len(all)), nil
}

func (m *Memory) CountAppointments(_ context.Context, f AppointmentFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.filterAppointments(f))), nil
}

func (m *Memory) GroupAppointments(_ context.Context, f AppointmentFilter, field AppointmentGroupField) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64)
	for _, a := range m.filterAppointments(f) {
		switch field {
		case GroupByStatus:
			out[string(a.Status)]++
		case GroupByType:
			out[string(a.Type)]++
		case GroupByMonth:
			out[MonthKey(a.Date)]++
		case GroupByCounselor:
			out[a.CounselorID.String()]++
		default:
			return nil, fmt.Errorf("group appointments: unsupported field %q", field)
		}
	}
	return out, nil
}

func (m *Memory) AverageDuration(_ context.Context, f AppointmentFilter) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.filterAppointments(f)
	if len(all) == 0 {
		return 0, nil
	}
	var sum int
	for _, a := range all {
		sum += a.Duration
	}
	return float64(sum) / float64(len(all)), nil
}

// --- notifications ---

func (m *Memory) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.notifications[n.ID] = *n
	return nil
}

func (m *Memory) filterNotifications(f NotificationFilter) []models.Notification {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID != f.UserID || (f.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out
}

func (m *Memory) ListNotifications(_ context.Context, f NotificationFilter, page Page) ([]models.Notification, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.filterNotifications(f)
	return paginate(all, page), int64(len(all)), nil
}

func (m *Memory) CountUnreadNotifications(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.filterNotifications(NotificationFilter{UserID: userID, UnreadOnly: true}))), nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, userID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
		m.notifications[id] = n
	}
	return nil
}

func (m *Memory) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, notif := range m.notifications {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
			notif.ReadAt = &at
			m.notifications[id] = notif
			n++
		}
	}
	return n, nil
}

// --- conversations ---

func (m *Memory) withLastMessage(c models.Conversation) models.Conversation {
	if c.LastMessageID != nil {
		if msg, ok := m.messages[*c.LastMessageID]; ok {
			c.LastMessage = &msg
		}
	}
	return c
}

func (m *Memory) FindConversation(_ context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	low, high := models.ParticipantPair(a, b)
	for _, c := range m.conversations {
		if c.ParticipantLowID == low && c.ParticipantHighID == high {
			c = m.withLastMessage(c)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("conversation: %w", ErrNotFound)
}

func (m *Memory) CreateConversation(_ context.Context, c *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ParticipantLowID, c.ParticipantHighID = models.ParticipantPair(c.ParticipantLowID, c.ParticipantHighID)
	for _, existing := range m.conversations {
		if existing.ParticipantLowID == c.ParticipantLowID && existing.ParticipantHighID == c.ParticipantHighID {
			return fmt.Errorf("create conversation: %w", ErrDuplicate)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := m.now()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.LastMessage = nil
	m.conversations[c.ID] = stored
	return nil
}

func (m *Memory) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	c = m.withLastMessage(c)
	return &c, nil
}

func (m *Memory) ListConversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Conversation
	for _, c := range m.conversations {
		if c.HasParticipant(userID) {
			out = append(out, m.withLastMessage(c))
		}
	}
	activity := func(c models.Conversation) time.Time {
		if c.LastMessageAt != nil {
			return *c.LastMessageAt
		}
		return c.CreatedAt
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(activity(out[i]), activity(out[j]), out[i].ID, out[j].ID)
	})
	return out, nil
}

func (m *Memory) CreateMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[msg.ConversationID]
	if !ok {
		return fmt.Errorf("create message: %w", ErrNotFound)
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	m.messages[msg.ID] = *msg
	id, at := msg.ID, msg.CreatedAt
	c.LastMessageID, c.LastMessageAt, c.UpdatedAt = &id, &at, at
	m.conversations[c.ID] = c
	return nil
}

func (m *Memory) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return &msg, nil
}

func (m *Memory) conversationMessages(conversationID uuid.UUID) []models.Message {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out
}

func (m *Memory) ListMessages(_ context.Context, conversationID uuid.UUID, page Page) ([]models.Message, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.conversationMessages(conversationID)
	return paginate(all, page), int64(len(all)), nil
}

func (m *Memory) MarkMessagesRead(_ context.Context, conversationID, receiverID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, msg := range m.messages {
		if msg.ConversationID != conversationID || msg.ReceiverID != receiverID || msg.IsRead {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, id) {
			continue
		}
		msg.IsRead = true
		msg.ReadAt = &at
		m.messages[id] = msg
		n++
	}
	return n, nil
}

func (m *Memory) CountUnreadMessages(_ context.Context, receiverID uuid.UUID, conversationID *uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, msg := range m.messages {
		if msg.ReceiverID != receiverID || msg.IsRead {
			continue
		}
		if conversationID != nil && msg.ConversationID != *conversationID {
			continue
		}
		n++
	}
	return n, nil
}

func (m *Memory) DeleteMessage(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	delete(m.messages, id)

	c := m.conversations[msg.ConversationID]
	c.LastMessageID, c.LastMessageAt = nil, nil
	if rest := m.conversationMessages(msg.ConversationID); len(rest) > 0 {
		latest := rest[len(rest)-1]
		c.LastMessageID, c.LastMessageAt = &latest.ID, &latest.CreatedAt
	}
	m.conversations[c.ID] = c
	return nil
}

// --- notes ---

func (m *Memory) CreateNote(_ context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := m.now()
	n.CreatedAt, n.UpdatedAt = now, now
	m.notes[n.ID] = *n
	return nil
}

func (m *Memory) GetNote(_ context.Context, id uuid.UUID) (*models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	return &n, nil
}

func (m *Memory) UpdateNote(_ context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; !ok {
		return fmt.Errorf("note %s: %w", n.ID, ErrNotFound)
	}
	m.notes[n.ID] = *n
	return nil
}

func (m *Memory) DeleteNote(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	delete(m.notes, id)
	return nil
}

func (m *Memory) ListNotes(_ context.Context, f NoteFilter, page Page) ([]models.Note, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Note
	for _, n := range m.notes {
		if f.StudentID != nil && n.StudentID != *f.StudentID {
			continue
		}
		if f.CounselorID != nil && n.CounselorID != *f.CounselorID {
			continue
		}
		if !f.IncludePrivate && n.IsPrivate {
			continue
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return newerFirst(all[i].CreatedAt, all[j].CreatedAt, all[i].ID, all[j].ID) })
	return paginate(all, page), int64(len(all)), nil
}

// idLess orders uuids bytewise, the way postgres compares them.
func idLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func newerFirst(a, b time.Time, aID, bID uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idLess(aID, bID)
}
