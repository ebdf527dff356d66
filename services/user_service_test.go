package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func (f *fixture) users() *UserService {
	return NewUserService(discardLogger(), f.repo, testSecret, time.Hour)
}

func TestUserService_CreateAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, actorOf(f.counselor), CreateUserInput{FullName: "X", Email: "x@uni.test", Password: "password1", Role: "student"})
	assert.Equal(t, KindForbidden, KindOf(err))

	user, err := svc.CreateUser(ctx, actorOf(f.chair), CreateUserInput{
		FullName:            "Dan Mwangi",
		Email:               " Dan@Uni.test ",
		Password:            "password1",
		Role:                "student",
		Department:          "Physics",
		AssignedCounselorID: &f.counselor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "dan@uni.test", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)

	profile, err := f.repo.GetStudentProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.CurrentSemester)
	assert.Equal(t, f.counselor.ID, *profile.AssignedCounselorID)

	_, err = svc.CreateUser(ctx, actorOf(f.chair), CreateUserInput{FullName: "Dup", Email: "dan@uni.test", Password: "password1", Role: "counselor"})
	assert.Equal(t, KindConflict, KindOf(err))
	_, err = svc.CreateUser(ctx, actorOf(f.chair), CreateUserInput{FullName: "Bad", Email: "b@uni.test", Password: "password1", Role: "dean"})
	assert.Equal(t, KindValidation, KindOf(err))

	token, got, err := svc.Login(ctx, "dan@uni.test", "password1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims[ClaimUserID])
	assert.Equal(t, "STUDENT", claims[ClaimRole])

	_, _, err = svc.Login(ctx, "dan@uni.test", "wrong")
	assert.Equal(t, KindUnauthorized, KindOf(err))
	_, _, err = svc.Login(ctx, "nobody@uni.test", "password1")
	assert.Equal(t, KindUnauthorized, KindOf(err))

	require.NoError(t, svc.SetActive(ctx, actorOf(f.chair), user.ID, false))
	_, _, err = svc.Login(ctx, "dan@uni.test", "password1")
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestUserService_AssignCounselor(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	ctx := context.Background()

	_, err := svc.AssignCounselor(ctx, actorOf(f.counselor), f.stranger.ID, f.counselor.ID)
	assert.Equal(t, KindForbidden, KindOf(err))
	_, err = svc.AssignCounselor(ctx, actorOf(f.chair), f.stranger.ID, f.student.ID)
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = svc.AssignCounselor(ctx, actorOf(f.chair), uuid.New(), f.counselor.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	events, err := svc.AssignCounselor(ctx, actorOf(f.chair), f.stranger.ID, f.counselor.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.stranger.ID, f.counselor.ID}, recipients(events))
	for _, e := range events {
		assert.Equal(t, models.NotificationCounselorAssigned, e.Type)
	}

	students, total, err := svc.ListAssignedStudents(ctx, actorOf(f.counselor), store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, students, 3)

	_, _, err = svc.ListAssignedStudents(ctx, actorOf(f.chair), store.Page{})
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestUserService_MeAndStatus(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	ctx := context.Background()

	user, profile, err := svc.Me(ctx, actorOf(f.student))
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, user.ID)
	require.NotNil(t, profile)
	assert.Equal(t, "S-001", profile.StudentNumber)

	_, profile, err = svc.Me(ctx, actorOf(f.counselor))
	require.NoError(t, err)
	assert.Nil(t, profile)

	err = svc.SetActive(ctx, actorOf(f.chair), f.chair.ID, false)
	assert.Equal(t, KindValidation, KindOf(err))
	err = svc.SetActive(ctx, actorOf(f.chair), uuid.New(), false)
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, svc.SetActive(ctx, actorOf(f.chair), f.counselor2.ID, false))
	counselors, err := svc.ListCounselors(ctx)
	require.NoError(t, err)
	require.Len(t, counselors, 1)
	assert.Equal(t, f.counselor.ID, counselors[0].UserID)
}
