package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/routes"
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret   = "handler-test-secret"
	password = "password1"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Kind       string          `json:"kind"`
	Pagination *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
	} `json:"pagination"`
}

type testAPI struct {
	app        *fiber.App
	repo       *store.Memory
	dispatcher *services.Dispatcher

	chair, counselor, student, other *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := store.NewMemory()

	users := services.NewUserService(log, repo, secret, time.Hour)
	analytics := services.NewAnalyticsService(log, repo)
	svc := handlers.Services{
		Appointments:  services.NewAppointmentService(log, repo, repo, repo),
		Messaging:     services.NewMessagingService(log, repo, repo, nil),
		Notifications: services.NewNotificationService(log, repo),
		Analytics:     analytics,
		Reports:       services.NewReportService(log, analytics, nil),
		Notes:         services.NewNoteService(log, repo, repo),
		Users:         users,
	}
	dispatcher := services.NewDispatcher(log, services.NewStoreSink(log, repo), repo, nil, nil)
	h := handlers.New(log, svc, dispatcher)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(h)})
	routes.Register(app, h, secret, repo, middleware.NewRateLimiter(0.01, 8))

	api := &testAPI{app: app, repo: repo, dispatcher: dispatcher}
	ctx := context.Background()
	root := services.Actor{UserID: uuid.New(), Role: models.RoleChairperson}
	create := func(in services.CreateUserInput) *models.User {
		in.Password = password
		u, err := users.CreateUser(ctx, root, in)
		require.NoError(t, err)
		return u
	}
	api.chair = create(services.CreateUserInput{FullName: "Grace Chair", Email: "chair@uni.test", Role: "chairperson"})
	api.counselor = create(services.CreateUserInput{FullName: "Dr. Otieno", Email: "otieno@uni.test", Role: "counselor", Specializations: []string{"career"}})
	api.student = create(services.CreateUserInput{FullName: "Amina Yusuf", Email: "amina@uni.test", Role: "student", AssignedCounselorID: &api.counselor.ID})
	api.other = create(services.CreateUserInput{FullName: "Brian Kamau", Email: "brian@uni.test", Role: "student"})
	return api
}

func (a *testAPI) token(t *testing.T, u *models.User) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	res := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": u.Email, "password": password}, &out)
	require.Equal(t, http.StatusOK, res.status, res.body.Message)
	require.NotEmpty(t, out.Token)
	return out.Token
}

type result struct {
	status int
	body   envelope
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any, data any) result {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if data != nil && env.Success {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return result{status: resp.StatusCode, body: env}
}

func TestAuth(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "amina@uni.test", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.False(t, res.body.Success)
	assert.Equal(t, "unauthorized", res.body.Kind)

	res = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "validation", res.body.Kind)

	res = api.do(t, http.MethodGet, "/api/v1/auth/me", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = api.do(t, http.MethodGet, "/api/v1/auth/me", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	var me struct {
		ID      uuid.UUID `json:"id"`
		Role    string    `json:"role"`
		Student *struct {
			CurrentSemester int `json:"currentSemester"`
		} `json:"student"`
	}
	res = api.do(t, http.MethodGet, "/api/v1/auth/me", api.token(t, api.student), nil, &me)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, api.student.ID, me.ID)
	assert.Equal(t, "student", me.Role)
	require.NotNil(t, me.Student)
	assert.Equal(t, 1, me.Student.CurrentSemester)
}

func TestLoginIsRateLimited(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]string{"email": "amina@uni.test", "password": "nope"}

	var last result
	for i := 0; i < 10; i++ {
		last = api.do(t, http.MethodPost, "/api/v1/auth/login", "", body, nil)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.status)
	assert.Equal(t, "rate_limited", last.body.Kind)
}

type appointmentBody struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
	Date      string    `json:"date"`
	Duration  int       `json:"duration"`
	Counselor *struct {
		FullName string `json:"fullName"`
	} `json:"counselor"`
}

func TestAppointmentLifecycle(t *testing.T) {
	api := newTestAPI(t)
	studentToken := api.token(t, api.student)
	counselorToken := api.token(t, api.counselor)

	create := map[string]any{
		"studentId":   api.student.ID,
		"counselorId": api.counselor.ID,
		"date":        "2099-05-04",
		"time":        "10:00",
		"type":        "career",
	}
	var appt appointmentBody
	res := api.do(t, http.MethodPost, "/api/v1/appointments", studentToken, create, &appt)
	require.Equal(t, http.StatusCreated, res.status, res.body.Message)
	assert.Equal(t, "pending", appt.Status)
	assert.Equal(t, "career", appt.Type)
	assert.Equal(t, "2099-05-04", appt.Date)
	assert.Equal(t, models.DefaultAppointmentDuration, appt.Duration)
	require.NotNil(t, appt.Counselor)
	assert.Equal(t, "Dr. Otieno", appt.Counselor.FullName)

	res = api.do(t, http.MethodPost, "/api/v1/appointments", counselorToken, create, nil)
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "conflict", res.body.Kind)

	res = api.do(t, http.MethodPost, "/api/v1/appointments", studentToken, map[string]any{"studentId": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	// a student outside the pair cannot see it
	res = api.do(t, http.MethodGet, "/api/v1/appointments/"+appt.ID.String(), api.token(t, api.other), nil, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	res = api.do(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", studentToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = api.do(t, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), studentToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, res.status)

	path := "/api/v1/appointments/" + appt.ID.String()
	res = api.do(t, http.MethodPatch, path+"/status", studentToken, map[string]string{"status": "completed"}, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = api.do(t, http.MethodPatch, path+"/status", counselorToken, map[string]string{"status": "scheduled"}, &appt)
	require.Equal(t, http.StatusOK, res.status, res.body.Message)
	assert.Equal(t, "scheduled", appt.Status)

	res = api.do(t, http.MethodPatch, path+"/status", counselorToken, map[string]string{"status": "scheduled"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "already_in_status", res.body.Kind)

	res = api.do(t, http.MethodPatch, path+"/status", counselorToken, map[string]string{"status": "completed"}, &appt)
	require.Equal(t, http.StatusOK, res.status)

	res = api.do(t, http.MethodPut, path, studentToken, map[string]any{"time": "11:00"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "terminal_state", res.body.Kind)

	var list []appointmentBody
	res = api.do(t, http.MethodGet, "/api/v1/appointments?status=completed,cancelled", studentToken, nil, &list)
	require.Equal(t, http.StatusOK, res.status)
	require.Len(t, list, 1)
	require.NotNil(t, res.body.Pagination)
	assert.EqualValues(t, 1, res.body.Pagination.Total)

	// post-commit notifications land in the student's inbox
	api.dispatcher.Wait()
	var count struct {
		Count int64 `json:"count"`
	}
	res = api.do(t, http.MethodGet, "/api/v1/notifications/unread-count", studentToken, nil, &count)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 3, count.Count)
}

func TestDeactivatedTokenIsRejected(t *testing.T) {
	api := newTestAPI(t)
	studentToken := api.token(t, api.student)
	chairToken := api.token(t, api.chair)

	res := api.do(t, http.MethodGet, "/api/v1/auth/me", studentToken, nil, nil)
	require.Equal(t, http.StatusOK, res.status)

	path := "/api/v1/admin/users/" + api.student.ID.String() + "/status"
	res = api.do(t, http.MethodPatch, path, chairToken, map[string]bool{"isActive": false}, nil)
	require.Equal(t, http.StatusOK, res.status, res.body.Message)

	res = api.do(t, http.MethodGet, "/api/v1/auth/me", studentToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "unauthorized", res.body.Kind)
	res = api.do(t, http.MethodGet, "/api/v1/appointments", studentToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = api.do(t, http.MethodPatch, path, chairToken, map[string]bool{"isActive": true}, nil)
	require.Equal(t, http.StatusOK, res.status)
	res = api.do(t, http.MethodGet, "/api/v1/auth/me", studentToken, nil, nil)
	assert.Equal(t, http.StatusOK, res.status)
}

func TestRoleGates(t *testing.T) {
	api := newTestAPI(t)
	studentToken := api.token(t, api.student)
	chairToken := api.token(t, api.chair)

	res := api.do(t, http.MethodGet, "/api/v1/analytics", studentToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "forbidden", res.body.Kind)

	res = api.do(t, http.MethodGet, "/api/v1/analytics/report", api.token(t, api.counselor), nil, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	var stats struct {
		Overview struct {
			TotalStudents int64 `json:"totalStudents"`
		} `json:"overview"`
		Counselors *struct{} `json:"counselors"`
	}
	res = api.do(t, http.MethodGet, "/api/v1/analytics?timeframe=month", chairToken, nil, &stats)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 2, stats.Overview.TotalStudents)
	assert.NotNil(t, stats.Counselors)

	res = api.do(t, http.MethodGet, "/api/v1/analytics?timeframe=decade", chairToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = api.do(t, http.MethodPost, "/api/v1/notes", studentToken, map[string]any{"studentId": api.student.ID, "title": "t", "content": "c"}, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = api.do(t, http.MethodPost, "/api/v1/admin/users", studentToken, map[string]any{}, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = api.do(t, http.MethodPut, "/api/v1/admin/students/"+api.other.ID.String()+"/counselor", chairToken,
		map[string]any{"counselorId": api.counselor.ID}, nil)
	require.Equal(t, http.StatusOK, res.status, res.body.Message)

	var students []json.RawMessage
	res = api.do(t, http.MethodGet, "/api/v1/counselors/me/students", api.token(t, api.counselor), nil, &students)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, students, 2)
}

func TestMessagingFlow(t *testing.T) {
	api := newTestAPI(t)
	studentToken := api.token(t, api.student)
	counselorToken := api.token(t, api.counselor)

	var conv struct {
		ID uuid.UUID `json:"id"`
	}
	res := api.do(t, http.MethodPost, "/api/v1/conversations", studentToken, map[string]any{"participantId": api.counselor.ID}, &conv)
	require.Equal(t, http.StatusCreated, res.status, res.body.Message)

	res = api.do(t, http.MethodPost, "/api/v1/conversations", counselorToken, map[string]any{"participantId": api.student.ID}, nil)
	assert.Equal(t, http.StatusOK, res.status)

	base := "/api/v1/conversations/" + conv.ID.String()
	res = api.do(t, http.MethodPost, base+"/messages", studentToken, map[string]any{"content": "hello"}, nil)
	require.Equal(t, http.StatusCreated, res.status, res.body.Message)

	res = api.do(t, http.MethodGet, base+"/messages", api.token(t, api.other), nil, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	var unread struct {
		Count int64 `json:"count"`
	}
	res = api.do(t, http.MethodGet, "/api/v1/messages/unread-count", counselorToken, nil, &unread)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 1, unread.Count)

	res = api.do(t, http.MethodPatch, base+"/read", counselorToken, map[string]any{}, nil)
	require.Equal(t, http.StatusOK, res.status, res.body.Message)
	res = api.do(t, http.MethodGet, "/api/v1/messages/unread-count", counselorToken, nil, &unread)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 0, unread.Count)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	res := api.do(t, http.MethodGet, "/nowhere", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "not_found", res.body.Kind)
}
