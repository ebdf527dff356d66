package services

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	trailingMonths  = 6
	topEngagedLimit = 5
)

type analyticsRepo interface {
	CountUsers(ctx context.Context, f store.UserFilter) (int64, error)
	ListCounselors(ctx context.Context, activeOnly bool) ([]models.CounselorProfile, error)
	GroupStudents(ctx context.Context, f store.UserFilter, field store.StudentGroupField) (map[string]int64, error)
	TopStudents(ctx context.Context, f store.UserFilter, limit int) ([]models.StudentProfile, error)
	CountAppointments(ctx context.Context, f store.AppointmentFilter) (int64, error)
	GroupAppointments(ctx context.Context, f store.AppointmentFilter, field store.AppointmentGroupField) (map[string]int64, error)
	AverageDuration(ctx context.Context, f store.AppointmentFilter) (float64, error)
}

type AnalyticsInput struct {
	StartDate string
	EndDate   string
	Timeframe string
}

type Analytics struct {
	Overview     Overview         `json:"overview"`
	Appointments AppointmentStats `json:"appointments"`
	Students     StudentStats     `json:"students"`
	Counselors   *CounselorStats  `json:"counselors,omitempty"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

// Overview carries headline counts. Counselor counts are platform wide and
// left out of a counselor's scoped view.
type Overview struct {
	TotalStudents     int64  `json:"totalStudents"`
	ActiveStudents    int64  `json:"activeStudents"`
	TotalCounselors   *int64 `json:"totalCounselors,omitempty"`
	ActiveCounselors  *int64 `json:"activeCounselors,omitempty"`
	TotalAppointments int64  `json:"totalAppointments"`
}

type AppointmentStats struct {
	ByStatus        map[string]int64 `json:"byStatus"`
	ByType          map[string]int64 `json:"byType"`
	AverageDuration float64          `json:"averageDuration"`
	Monthly         []MonthCount     `json:"monthly"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type StudentStats struct {
	ByDepartment map[string]int64 `json:"byDepartment"`
	BySemester   map[string]int64 `json:"bySemester"`
	TopEngaged   []EngagedStudent `json:"topEngaged"`
}

type EngagedStudent struct {
	StudentID       uuid.UUID  `json:"studentId"`
	Name            string     `json:"name"`
	TotalSessions   int        `json:"totalSessions"`
	LastSessionDate *time.Time `json:"lastSessionDate"`
}

type CounselorStats struct {
	Workload        []CounselorWorkload `json:"workload"`
	Specializations map[string]int64    `json:"specializations"`
}

type CounselorWorkload struct {
	CounselorID uuid.UUID `json:"counselorId"`
	Name        string    `json:"name"`
	Total       int64     `json:"total"`
	Completed   int64     `json:"completed"`
	Pending     int64     `json:"pending"`
	Scheduled   int64     `json:"scheduled"`
	Cancelled   int64     `json:"cancelled"`
	Students    int64     `json:"students"`
}

// AnalyticsService recomputes every report from the store on each call.
type AnalyticsService struct {
	repo analyticsRepo
	log  *slog.Logger
	now  func() time.Time
}

func NewAnalyticsService(log *slog.Logger, repo analyticsRepo) *AnalyticsService {
	return &AnalyticsService{
		repo: repo,
		log:  log.With("service", "analytics"),
		now:  time.Now,
	}
}

func (s *AnalyticsService) Compute(ctx context.Context, actor Actor, in AnalyticsInput) (*Analytics, error) {
	if !actor.CanViewAnalytics() {
		return nil, Forbidden("analytics are available to counselors and the chairperson")
	}
	now := s.now()
	from, to, err := ResolveRange(in.Timeframe, in.StartDate, in.EndDate, now)
	if err != nil {
		return nil, err
	}

	var (
		apptScope    store.AppointmentFilter
		studentScope store.UserFilter
	)
	if !actor.IsOverride() {
		apptScope.CounselorID = &actor.UserID
		studentScope.AssignedCounselorID = &actor.UserID
	}
	ranged := apptScope
	ranged.From, ranged.To = from, to

	out := &Analytics{GeneratedAt: now}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.overview(gctx, studentScope, ranged, &out.Overview)
	})
	g.Go(func() error {
		return s.appointmentStats(gctx, ranged, apptScope, now, &out.Appointments)
	})
	g.Go(func() error {
		return s.studentStats(gctx, studentScope, &out.Students)
	})
	if actor.IsOverride() {
		out.Counselors = &CounselorStats{}
		g.Go(func() error {
			return s.counselorStats(gctx, ranged, out.Counselors)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Internal(err, "failed to compute analytics")
	}
	return out, nil
}

func (s *AnalyticsService) overview(ctx context.Context, students store.UserFilter, appts store.AppointmentFilter, out *Overview) error {
	studentRole, counselorRole := models.RoleStudent, models.RoleCounselor
	if students.AssignedCounselorID == nil {
		students.Role = &studentRole
	}
	var err error
	if out.TotalStudents, err = s.repo.CountUsers(ctx, students); err != nil {
		return err
	}
	students.ActiveOnly = true
	if out.ActiveStudents, err = s.repo.CountUsers(ctx, students); err != nil {
		return err
	}
	if students.AssignedCounselorID == nil {
		total, err := s.repo.CountUsers(ctx, store.UserFilter{Role: &counselorRole})
		if err != nil {
			return err
		}
		active, err := s.repo.CountUsers(ctx, store.UserFilter{Role: &counselorRole, ActiveOnly: true})
		if err != nil {
			return err
		}
		out.TotalCounselors, out.ActiveCounselors = &total, &active
	}
	out.TotalAppointments, err = s.repo.CountAppointments(ctx, appts)
	return err
}

func (s *AnalyticsService) appointmentStats(ctx context.Context, ranged, scope store.AppointmentFilter, now time.Time, out *AppointmentStats) error {
	byStatus, err := s.repo.GroupAppointments(ctx, ranged, store.GroupByStatus)
	if err != nil {
		return err
	}
	out.ByStatus = lowerKeys(byStatus, models.StatusPending, models.StatusScheduled, models.StatusCompleted, models.StatusCancelled)

	byType, err := s.repo.GroupAppointments(ctx, ranged, store.GroupByType)
	if err != nil {
		return err
	}
	out.ByType = lowerKeys(byType, models.TypeCounseling, models.TypeAcademic, models.TypeCareer, models.TypePersonal)

	completed := ranged
	completed.Statuses = []models.AppointmentStatus{models.StatusCompleted}
	avg, err := s.repo.AverageDuration(ctx, completed)
	if err != nil {
		return err
	}
	out.AverageDuration = math.Round(avg*10) / 10

	// the monthly series always covers the trailing window, not the requested range
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trailingMonths - 1), 0)
	last := first.AddDate(0, trailingMonths, -1)
	window := scope
	window.From, window.To = &first, &last
	monthly, err := s.repo.GroupAppointments(ctx, window, store.GroupByMonth)
	if err != nil {
		return err
	}
	out.Monthly = make([]MonthCount, 0, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		key := store.MonthKey(first.AddDate(0, i, 0))
		out.Monthly = append(out.Monthly, MonthCount{Month: key, Count: monthly[key]})
	}
	return nil
}

func (s *AnalyticsService) studentStats(ctx context.Context, scope store.UserFilter, out *StudentStats) error {
	var err error
	if out.ByDepartment, err = s.repo.GroupStudents(ctx, scope, store.GroupByDepartment); err != nil {
		return err
	}
	if out.BySemester, err = s.repo.GroupStudents(ctx, scope, store.GroupBySemester); err != nil {
		return err
	}
	top, err := s.repo.TopStudents(ctx, scope, topEngagedLimit)
	if err != nil {
		return err
	}
	out.TopEngaged = make([]EngagedStudent, 0, len(top))
	for _, p := range top {
		out.TopEngaged = append(out.TopEngaged, EngagedStudent{
			StudentID:       p.UserID,
			Name:            p.User.FullName,
			TotalSessions:   p.TotalSessions,
			LastSessionDate: p.LastSessionDate,
		})
	}
	return nil
}

func (s *AnalyticsService) counselorStats(ctx context.Context, ranged store.AppointmentFilter, out *CounselorStats) error {
	counselors, err := s.repo.ListCounselors(ctx, false)
	if err != nil {
		return err
	}

	perStatus := make(map[models.AppointmentStatus]map[string]int64, 4)
	for _, st := range []models.AppointmentStatus{models.StatusPending, models.StatusScheduled, models.StatusCompleted, models.StatusCancelled} {
		f := ranged
		f.Statuses = []models.AppointmentStatus{st}
		if perStatus[st], err = s.repo.GroupAppointments(ctx, f, store.GroupByCounselor); err != nil {
			return err
		}
	}

	out.Specializations = make(map[string]int64)
	out.Workload = make([]CounselorWorkload, 0, len(counselors))
	for _, c := range counselors {
		key := c.UserID.String()
		w := CounselorWorkload{
			CounselorID: c.UserID,
			Name:        c.User.FullName,
			Pending:     perStatus[models.StatusPending][key],
			Scheduled:   perStatus[models.StatusScheduled][key],
			Completed:   perStatus[models.StatusCompleted][key],
			Cancelled:   perStatus[models.StatusCancelled][key],
		}
		w.Total = w.Pending + w.Scheduled + w.Completed + w.Cancelled
		id := c.UserID
		if w.Students, err = s.repo.CountUsers(ctx, store.UserFilter{AssignedCounselorID: &id}); err != nil {
			return err
		}
		out.Workload = append(out.Workload, w)

		for _, tag := range c.Tags() {
			out.Specializations[strings.ToLower(tag)]++
		}
	}
	sort.SliceStable(out.Workload, func(i, j int) bool { return out.Workload[i].Total > out.Workload[j].Total })
	return nil
}

func lowerKeys[K ~string](in map[string]int64, keys ...K) map[string]int64 {
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		out[strings.ToLower(string(k))] = in[string(k)]
	}
	return out
}
