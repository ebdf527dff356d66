package services

import (
	"strings"
	"time"
)

// Timeframe tokens resolve to a trailing window ending now. They are
// approximations, not calendar periods.
const (
	TimeframeWeek     = "week"
	TimeframeMonth    = "month"
	TimeframeSemester = "semester"
)

// ResolveRange turns a timeframe token or an explicit start/end pair into
// date bounds. A timeframe wins over explicit dates; nil bounds are open.
func ResolveRange(timeframe, start, end string, now time.Time) (*time.Time, *time.Time, error) {
	if tf := strings.ToLower(strings.TrimSpace(timeframe)); tf != "" {
		var from time.Time
		switch tf {
		case TimeframeWeek:
			from = now.AddDate(0, 0, -7)
		case TimeframeMonth:
			from = now.AddDate(0, -1, 0)
		case TimeframeSemester:
			from = now.AddDate(0, -4, 0)
		default:
			return nil, nil, Validation("invalid timeframe %q", timeframe)
		}
		to := now
		return &from, &to, nil
	}

	var from, to *time.Time
	if strings.TrimSpace(start) != "" {
		t, err := ParseDate(start)
		if err != nil {
			return nil, nil, Validation("invalid startDate: %s", err.Error())
		}
		from = &t
	}
	if strings.TrimSpace(end) != "" {
		t, err := ParseDate(end)
		if err != nil {
			return nil, nil, Validation("invalid endDate: %s", err.Error())
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, Validation("endDate must not be before startDate")
	}
	return from, to, nil
}
