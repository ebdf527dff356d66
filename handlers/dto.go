package handlers

import (
	"strings"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
)

type userSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

func summarize(u models.User) *userSummary {
	if u.ID == uuid.Nil {
		return nil
	}
	return &userSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: strings.ToLower(string(u.Role))}
}

// appointmentResponse is the wire form. Status and type are lower-cased.
type appointmentResponse struct {
	ID          uuid.UUID    `json:"id"`
	StudentID   uuid.UUID    `json:"studentId"`
	CounselorID uuid.UUID    `json:"counselorId"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Duration    int          `json:"duration"`
	Type        string       `json:"type"`
	Status      string       `json:"status"`
	Location    string       `json:"location"`
	Notes       string       `json:"notes"`
	Student     *userSummary `json:"student,omitempty"`
	Counselor   *userSummary `json:"counselor,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func toAppointment(a *models.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		StudentID:   a.StudentID,
		CounselorID: a.CounselorID,
		Date:        a.Date.Format("2006-01-02"),
		Time:        a.Time,
		Duration:    a.Duration,
		Type:        strings.ToLower(string(a.Type)),
		Status:      strings.ToLower(string(a.Status)),
		Location:    a.Location,
		Notes:       a.Notes,
		Student:     summarize(a.Student),
		Counselor:   summarize(a.Counselor),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toAppointments(items []models.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(items))
	for i := range items {
		out = append(out, toAppointment(&items[i]))
	}
	return out
}

type attachmentResponse struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

type messageResponse struct {
	ID             uuid.UUID           `json:"id"`
	ConversationID uuid.UUID           `json:"conversationId"`
	SenderID       uuid.UUID           `json:"senderId"`
	ReceiverID     uuid.UUID           `json:"receiverId"`
	Content        string              `json:"content"`
	Attachment     *attachmentResponse `json:"attachment,omitempty"`
	IsRead         bool                `json:"isRead"`
	ReadAt         *time.Time          `json:"readAt"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toMessage(m *models.Message) messageResponse {
	out := messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
	if !m.Attachment.IsZero() {
		// downloads go through the API so access stays participant-only
		out.Attachment = &attachmentResponse{
			FileName:    m.Attachment.FileName,
			ContentType: m.Attachment.ContentType,
			Size:        m.Attachment.Size,
			URL:         "/api/v1/messages/" + m.ID.String() + "/attachment",
		}
	}
	return out
}

func toMessages(items []models.Message) []messageResponse {
	out := make([]messageResponse, 0, len(items))
	for i := range items {
		out = append(out, toMessage(&items[i]))
	}
	return out
}

type conversationResponse struct {
	ID            uuid.UUID        `json:"id"`
	Participant   *userSummary     `json:"participant,omitempty"`
	LastMessage   *messageResponse `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time       `json:"lastMessageAt"`
	UnreadCount   int64            `json:"unreadCount"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func toConversation(c *models.Conversation, counterpart models.User, unread int64) conversationResponse {
	out := conversationResponse{
		ID:            c.ID,
		Participant:   summarize(counterpart),
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   unread,
		CreatedAt:     c.CreatedAt,
	}
	if c.LastMessage != nil {
		m := toMessage(c.LastMessage)
		out.LastMessage = &m
	}
	return out
}

type studentResponse struct {
	ID                  uuid.UUID  `json:"id"`
	FullName            string     `json:"fullName"`
	Email               string     `json:"email"`
	IsActive            bool       `json:"isActive"`
	StudentNumber       string     `json:"studentNumber"`
	Department          string     `json:"department"`
	CurrentSemester     int        `json:"currentSemester"`
	AssignedCounselorID *uuid.UUID `json:"assignedCounselorId"`
	TotalSessions       int        `json:"totalSessions"`
	LastSessionDate     *time.Time `json:"lastSessionDate"`
}

func toStudent(p *models.StudentProfile) studentResponse {
	return studentResponse{
		ID:                  p.UserID,
		FullName:            p.User.FullName,
		Email:               p.User.Email,
		IsActive:            p.User.IsActive,
		StudentNumber:       p.StudentNumber,
		Department:          p.Department,
		CurrentSemester:     p.CurrentSemester,
		AssignedCounselorID: p.AssignedCounselorID,
		TotalSessions:       p.TotalSessions,
		LastSessionDate:     p.LastSessionDate,
	}
}

type counselorResponse struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	Title           string    `json:"title"`
	Specializations []string  `json:"specializations"`
	MaxStudents     int       `json:"maxStudents"`
}

func toCounselor(p *models.CounselorProfile) counselorResponse {
	tags := p.Tags()
	if tags == nil {
		tags = []string{}
	}
	return counselorResponse{
		ID:              p.UserID,
		FullName:        p.User.FullName,
		Email:           p.User.Email,
		Title:           p.Title,
		Specializations: tags,
		MaxStudents:     p.MaxStudents,
	}
}
