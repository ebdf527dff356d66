package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/anjiri1684/counsel_connect/configs"
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the postgres pool described by cfg.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		// conversations point at their last message and messages at their
		// conversation; integrity is kept by the store, not FK constraints.
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnLifetime)

	return db, nil
}

// slotIndexes close the double-booking race: only one active appointment
// may hold a (participant, date, time) slot.
var slotIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_counselor_active_slot
		ON appointments (counselor_id, date, time)
		WHERE status IN ('PENDING', 'SCHEDULED')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_student_active_slot
		ON appointments (student_id, date, time)
		WHERE status IN ('PENDING', 'SCHEDULED')`,
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.CounselorProfile{},
		&models.Appointment{},
		&models.Notification{},
		&models.Message{},
		&models.Conversation{},
		&models.Note{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, ddl := range slotIndexes {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("create slot index: %w", err)
		}
	}
	return nil
}

// Accounts is the slice of the store the seed needs.
type Accounts interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, student *models.StudentProfile, counselor *models.CounselorProfile) error
}

// SeedChairperson creates the override account on first boot. It is a no-op
// when the seed credentials are empty or the account already exists.
func SeedChairperson(ctx context.Context, users Accounts, cfg config.SeedConfig, log *slog.Logger) error {
	email := strings.TrimSpace(cfg.ChairpersonEmail)
	if email == "" || cfg.ChairpersonPassword == "" {
		log.Warn("chairperson seed skipped, CHAIRPERSON_EMAIL or CHAIRPERSON_PASSWORD not set")
		return nil
	}

	_, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		log.Info("chairperson already exists", "email", email)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check chairperson: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.ChairpersonPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash chairperson password: %w", err)
	}

	user := models.User{
		FullName: cfg.ChairpersonName,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleChairperson,
		IsActive: true,
	}
	if err := users.CreateUser(ctx, &user, nil, nil); err != nil {
		return fmt.Errorf("seed chairperson: %w", err)
	}

	log.Info("chairperson seeded", "email", email)
	return nil
}
