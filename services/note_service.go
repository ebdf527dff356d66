package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
)

type noteRepo interface {
	CreateNote(ctx context.Context, n *models.Note) error
	GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error)
	UpdateNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, id uuid.UUID) error
	ListNotes(ctx context.Context, f store.NoteFilter, page store.Page) ([]models.Note, int64, error)
}

type noteContext interface {
	GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
}

type NoteService struct {
	notes   noteRepo
	lookups noteContext
	log     *slog.Logger
	now     func() time.Time
}

func NewNoteService(log *slog.Logger, notes noteRepo, lookups noteContext) *NoteService {
	return &NoteService{
		notes:   notes,
		lookups: lookups,
		log:     log.With("service", "note"),
		now:     time.Now,
	}
}

type CreateNoteInput struct {
	StudentID     uuid.UUID
	AppointmentID *uuid.UUID
	Title         string
	Content       string
	IsPrivate     *bool
}

type UpdateNoteInput struct {
	Title     *string
	Content   *string
	IsPrivate *bool
}

func (s *NoteService) Create(ctx context.Context, actor Actor, in CreateNoteInput) (*models.Note, error) {
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if in.StudentID == uuid.Nil || title == "" || content == "" {
		return nil, Validation("studentId, title and content are required")
	}

	profile, err := s.lookups.GetStudentProfile(ctx, in.StudentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("student not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load student")
	}
	if !actor.CanWriteNotes(profile) {
		return nil, Forbidden("notes can only be written by the student's assigned counselor")
	}

	if in.AppointmentID != nil {
		appt, err := s.lookups.GetAppointment(ctx, *in.AppointmentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound("appointment not found")
		}
		if err != nil {
			return nil, Internal(err, "failed to load appointment")
		}
		if appt.StudentID != in.StudentID || appt.CounselorID != actor.UserID {
			return nil, Validation("appointment does not belong to this student and counselor")
		}
	}

	note := &models.Note{
		StudentID:     in.StudentID,
		CounselorID:   actor.UserID,
		AppointmentID: in.AppointmentID,
		Title:         title,
		Content:       content,
		IsPrivate:     true,
	}
	if in.IsPrivate != nil {
		note.IsPrivate = *in.IsPrivate
	}
	if err := s.notes.CreateNote(ctx, note); err != nil {
		return nil, Internal(err, "failed to create note")
	}
	return note, nil
}

// List scopes notes by role: counselors see their own, the chairperson sees
// all, students see only shared notes about themselves.
func (s *NoteService) List(ctx context.Context, actor Actor, studentID *uuid.UUID, page store.Page) ([]models.Note, int64, error) {
	f := store.NoteFilter{StudentID: studentID, IncludePrivate: true}
	switch actor.Role {
	case models.RoleCounselor:
		f.CounselorID = &actor.UserID
	case models.RoleChairperson:
	case models.RoleStudent:
		f.StudentID = &actor.UserID
		f.IncludePrivate = false
	default:
		return nil, 0, Forbidden("unknown role")
	}
	items, total, err := s.notes.ListNotes(ctx, f, page)
	if err != nil {
		return nil, 0, Internal(err, "failed to list notes")
	}
	return items, total, nil
}

func (s *NoteService) authored(ctx context.Context, actor Actor, id uuid.UUID) (*models.Note, error) {
	note, err := s.notes.GetNote(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("note not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load note")
	}
	if note.CounselorID != actor.UserID && !actor.IsOverride() {
		return nil, Forbidden("only the author can change this note")
	}
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateNoteInput) (*models.Note, error) {
	note, err := s.authored(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if note.Title = strings.TrimSpace(*in.Title); note.Title == "" {
			return nil, Validation("title must not be empty")
		}
	}
	if in.Content != nil {
		if note.Content = strings.TrimSpace(*in.Content); note.Content == "" {
			return nil, Validation("content must not be empty")
		}
	}
	if in.IsPrivate != nil {
		note.IsPrivate = *in.IsPrivate
	}
	note.UpdatedAt = s.now()
	if err := s.notes.UpdateNote(ctx, note); err != nil {
		return nil, Internal(err, "failed to update note")
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	if err := s.notes.DeleteNote(ctx, id); err != nil {
		return Internal(err, "failed to delete note")
	}
	return nil
}
