package store

import (
	"context"
	"fmt"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Gorm) CreateNote(ctx context.Context, n *models.Note) error {
	return mapError(conn(ctx, s.db).Create(n).Error, "create note")
}

func (s *Gorm) GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	var n models.Note
	if err := conn(ctx, s.db).First(&n, "id = ?", id).Error; err != nil {
		return nil, mapError(err, "note "+id.String())
	}
	return &n, nil
}

func (s *Gorm) UpdateNote(ctx context.Context, n *models.Note) error {
	res := conn(ctx, s.db).Model(&models.Note{}).Where("id = ?", n.ID).Updates(map[string]any{
		"title":      n.Title,
		"content":    n.Content,
		"is_private": n.IsPrivate,
		"updated_at": n.UpdatedAt,
	})
	if res.Error != nil {
		return mapError(res.Error, "note "+n.ID.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %s: %w", n.ID, ErrNotFound)
	}
	return nil
}

func (s *Gorm) DeleteNote(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, s.db).Delete(&models.Note{}, "id = ?", id)
	if res.Error != nil {
		return mapError(res.Error, "note "+id.String())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Gorm) noteQuery(ctx context.Context, f NoteFilter) *gorm.DB {
	q := conn(ctx, s.db).Model(&models.Note{})
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.CounselorID != nil {
		q = q.Where("counselor_id = ?", *f.CounselorID)
	}
	if !f.IncludePrivate {
		q = q.Where("is_private = ?", false)
	}
	return q
}

func (s *Gorm) ListNotes(ctx context.Context, f NoteFilter, page Page) ([]models.Note, int64, error) {
	page = page.Normalize()
	var total int64
	if err := s.noteQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, mapError(err, "count notes")
	}
	var out []models.Note
	err := s.noteQuery(ctx, f).Order("created_at desc, id asc").Limit(page.Limit).Offset(page.Offset()).Find(&out).Error
	if err != nil {
		return nil, 0, mapError(err, "list notes")
	}
	return out, total, nil
}
