package services

import (
	"context"
	"testing"

	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteService_CreateAndScope(t *testing.T) {
	f := newFixture(t)
	svc := NewNoteService(discardLogger(), f.repo, f.repo)
	ctx := context.Background()
	appt := f.book(t, actorOf(f.student), f.student, f.counselor, "2025-03-20", "10:00")

	private, err := svc.Create(ctx, actorOf(f.counselor), CreateNoteInput{
		StudentID: f.student.ID, AppointmentID: &appt.ID, Title: " Intake ", Content: "anxious about exams",
	})
	require.NoError(t, err)
	assert.True(t, private.IsPrivate)
	assert.Equal(t, "Intake", private.Title)
	assert.Equal(t, f.counselor.ID, private.CounselorID)

	shared, err := svc.Create(ctx, actorOf(f.counselor), CreateNoteInput{
		StudentID: f.student.ID, Title: "Plan", Content: "weekly check-ins", IsPrivate: ptr(false),
	})
	require.NoError(t, err)

	_, total, err := svc.List(ctx, actorOf(f.counselor), nil, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// students only see shared notes about themselves
	items, total, err := svc.List(ctx, actorOf(f.student), &f.student2.ID, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, shared.ID, items[0].ID)

	_, total, err = svc.List(ctx, actorOf(f.counselor2), nil, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	_, total, err = svc.List(ctx, actorOf(f.chair), &f.student.ID, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestNoteService_CreateRules(t *testing.T) {
	f := newFixture(t)
	svc := NewNoteService(discardLogger(), f.repo, f.repo)
	ctx := context.Background()
	other := f.book(t, actorOf(f.student2), f.student2, f.counselor, "2025-03-20", "10:00")

	tests := []struct {
		name  string
		actor Actor
		in    CreateNoteInput
		kind  ErrorKind
	}{
		{"missing content", actorOf(f.counselor), CreateNoteInput{StudentID: f.student.ID, Title: "x"}, KindValidation},
		{"unknown student", actorOf(f.counselor), CreateNoteInput{StudentID: uuid.New(), Title: "x", Content: "y"}, KindNotFound},
		{"not assigned", actorOf(f.counselor2), CreateNoteInput{StudentID: f.student.ID, Title: "x", Content: "y"}, KindForbidden},
		{"student author", actorOf(f.student), CreateNoteInput{StudentID: f.student.ID, Title: "x", Content: "y"}, KindForbidden},
		{"foreign appointment", actorOf(f.counselor), CreateNoteInput{StudentID: f.student.ID, AppointmentID: &other.ID, Title: "x", Content: "y"}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.actor, tt.in)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestNoteService_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewNoteService(discardLogger(), f.repo, f.repo)
	ctx := context.Background()

	note, err := svc.Create(ctx, actorOf(f.counselor), CreateNoteInput{StudentID: f.student.ID, Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, actorOf(f.counselor2), note.ID, UpdateNoteInput{Title: ptr("hijack")})
	assert.Equal(t, KindForbidden, KindOf(err))
	_, err = svc.Update(ctx, actorOf(f.counselor), note.ID, UpdateNoteInput{Content: ptr("  ")})
	assert.Equal(t, KindValidation, KindOf(err))

	updated, err := svc.Update(ctx, actorOf(f.counselor), note.ID, UpdateNoteInput{Title: ptr("follow-up"), IsPrivate: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "follow-up", updated.Title)
	assert.False(t, updated.IsPrivate)

	require.NoError(t, svc.Delete(ctx, actorOf(f.chair), note.ID))
	err = svc.Delete(ctx, actorOf(f.counselor), note.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}
