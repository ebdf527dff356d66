package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/anjiri1684/counsel_connect/services"
	"github.com/robfig/cron/v3"
)

type reminderSource interface {
	DueReminders(ctx context.Context, day time.Time) ([]services.Event, error)
}

type eventSink interface {
	Dispatch(ctx context.Context, events []services.Event)
}

// ReminderJob notifies both participants of every appointment scheduled
// for the following day.
type ReminderJob struct {
	appointments reminderSource
	events       eventSink
	log          *slog.Logger
	now          func() time.Time
	timeout      time.Duration
}

func NewReminderJob(log *slog.Logger, appointments reminderSource, events eventSink) *ReminderJob {
	return &ReminderJob{
		appointments: appointments,
		events:       events,
		log:          log.With("job", "appointment_reminders"),
		now:          time.Now,
		timeout:      5 * time.Minute,
	}
}

// Run sends reminders for tomorrow. It returns the number of events sent.
func (j *ReminderJob) Run(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	tomorrow := j.now().AddDate(0, 0, 1)
	events, err := j.appointments.DueReminders(ctx, tomorrow)
	if err != nil {
		j.log.ErrorContext(ctx, "failed to collect reminders", "error", err)
		return 0
	}
	if len(events) == 0 {
		return 0
	}
	j.events.Dispatch(ctx, events)
	j.log.InfoContext(ctx, "reminders sent", "count", len(events), "day", tomorrow.Format("2006-01-02"))
	return len(events)
}

// Schedule registers the job on c under spec.
func (j *ReminderJob) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() { j.Run(ctx) })
}
