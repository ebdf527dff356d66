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
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRepo interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, student *models.StudentProfile, counselor *models.CounselorProfile) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error)
	AssignCounselor(ctx context.Context, studentID, counselorID uuid.UUID) error
	ListStudents(ctx context.Context, f store.UserFilter, page store.Page) ([]models.StudentProfile, int64, error)
	ListCounselors(ctx context.Context, activeOnly bool) ([]models.CounselorProfile, error)
}

// Token claim names.
const (
	ClaimUserID = "user_id"
	ClaimRole   = "role"
)

type UserService struct {
	users     userRepo
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewUserService(log *slog.Logger, users userRepo, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log.With("service", "user"),
		now:       time.Now,
	}
}

// Login checks credentials and issues an HS256 bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, Unauthorized("invalid email or password")
	}
	if err != nil {
		return "", nil, Internal(err, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return "", nil, Forbidden("account is disabled")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, Internal(err, "failed to create token")
	}
	return token, user, nil
}

func (s *UserService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID: user.ID.String(),
		ClaimRole:   string(user.Role),
		"exp":       s.now().Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *UserService) Me(ctx context.Context, actor Actor) (*models.User, *models.StudentProfile, error) {
	user, err := s.users.GetUser(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, NotFound("user not found")
	}
	if err != nil {
		return nil, nil, Internal(err, "failed to load user")
	}
	if user.Role != models.RoleStudent {
		return user, nil, nil
	}
	profile, err := s.users.GetStudentProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, Internal(err, "failed to load student profile")
	}
	return user, profile, nil
}

type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	Role     string

	StudentNumber       string
	Department          string
	CurrentSemester     int
	AssignedCounselorID *uuid.UUID

	Title           string
	Specializations []string
	MaxStudents     int
}

// CreateUser provisions an account with its role profile. Chairperson only.
func (s *UserService) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*models.User, error) {
	if !actor.IsOverride() {
		return nil, Forbidden("only the chairperson can create users")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, Validation("invalid role %q", in.Role)
	}
	if in.AssignedCounselorID != nil {
		if _, err := s.counselor(ctx, *in.AssignedCounselorID); err != nil {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal(err, "failed to hash password")
	}
	user := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}

	var student *models.StudentProfile
	var counselor *models.CounselorProfile
	switch role {
	case models.RoleStudent:
		semester := in.CurrentSemester
		if semester <= 0 {
			semester = 1
		}
		student = &models.StudentProfile{
			StudentNumber:       strings.TrimSpace(in.StudentNumber),
			Department:          strings.TrimSpace(in.Department),
			CurrentSemester:     semester,
			AssignedCounselorID: in.AssignedCounselorID,
		}
	case models.RoleCounselor:
		maxStudents := in.MaxStudents
		if maxStudents <= 0 {
			maxStudents = 50
		}
		counselor = &models.CounselorProfile{
			Title:           strings.TrimSpace(in.Title),
			Specializations: strings.Join(in.Specializations, ","),
			MaxStudents:     maxStudents,
		}
	}

	err = s.users.CreateUser(ctx, user, student, counselor)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, Conflict("a user with this email already exists")
	}
	if err != nil {
		return nil, Internal(err, "failed to create user")
	}

	s.log.InfoContext(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// AssignCounselor links a student to a counselor. Chairperson only.
func (s *UserService) AssignCounselor(ctx context.Context, actor Actor, studentID, counselorID uuid.UUID) ([]Event, error) {
	if !actor.IsOverride() {
		return nil, Forbidden("only the chairperson can assign counselors")
	}
	counselor, err := s.counselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.GetStudentProfile(ctx, studentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("student not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load student")
	}
	if err := s.users.AssignCounselor(ctx, studentID, counselorID); err != nil {
		return nil, Internal(err, "failed to assign counselor")
	}

	sid := studentID
	return []Event{
		{
			Recipient:   studentID,
			Type:        models.NotificationCounselorAssigned,
			Title:       "Counselor assigned",
			Message:     fmt.Sprintf("%s is now your counselor.", counselor.FullName),
			RelatedID:   &sid,
			RelatedType: models.RelatedStudent,
		},
		{
			Recipient:   counselorID,
			Type:        models.NotificationCounselorAssigned,
			Title:       "New student assigned",
			Message:     fmt.Sprintf("%s has been assigned to you.", profile.User.FullName),
			RelatedID:   &sid,
			RelatedType: models.RelatedStudent,
		},
	}, nil
}

func (s *UserService) SetActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) error {
	if !actor.IsOverride() {
		return Forbidden("only the chairperson can change account status")
	}
	if id == actor.UserID && !active {
		return Validation("you cannot deactivate your own account")
	}
	err := s.users.SetUserActive(ctx, id, active)
	if errors.Is(err, store.ErrNotFound) {
		return NotFound("user not found")
	}
	if err != nil {
		return Internal(err, "failed to update user")
	}
	return nil
}

func (s *UserService) ListCounselors(ctx context.Context) ([]models.CounselorProfile, error) {
	out, err := s.users.ListCounselors(ctx, true)
	if err != nil {
		return nil, Internal(err, "failed to list counselors")
	}
	return out, nil
}

// ListAssignedStudents lists the counselor's own students.
func (s *UserService) ListAssignedStudents(ctx context.Context, actor Actor, page store.Page) ([]models.StudentProfile, int64, error) {
	if !actor.Is(models.RoleCounselor) {
		return nil, 0, Forbidden("only counselors have assigned students")
	}
	items, total, err := s.users.ListStudents(ctx, store.UserFilter{AssignedCounselorID: &actor.UserID}, page)
	if err != nil {
		return nil, 0, Internal(err, "failed to list students")
	}
	return items, total, nil
}

func (s *UserService) counselor(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("counselor not found")
	}
	if err != nil {
		return nil, Internal(err, "failed to load counselor")
	}
	if user.Role != models.RoleCounselor {
		return nil, Validation("user %s is not a counselor", id)
	}
	return user, nil
}
