package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrSlotTaken is returned when an active appointment already occupies
	// the (counselor, date, time) or (student, date, time) slot.
	ErrSlotTaken = errors.New("appointment slot already taken")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	counselorSlotIndex = "idx_appointments_counselor_active_slot"
	studentSlotIndex   = "idx_appointments_student_active_slot"
)

// mapError converts gorm/pgx errors into store sentinels. Context errors pass through.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", entity, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == counselorSlotIndex || pgErr.ConstraintName == studentSlotIndex {
				return fmt.Errorf("%s: %w", entity, ErrSlotTaken)
			}
			return fmt.Errorf("%s: %w", entity, ErrDuplicate)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", entity, ErrNotFound)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", entity, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", entity, err)
}
