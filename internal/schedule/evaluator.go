// Package schedule computes when a chore is next due from its schedule and
// completion history. It is a pure leaf package: no I/O, no clock reads of
// its own — callers pass `now` in explicitly so a single tick can keep
// every chore's evaluation consistent.
package schedule

import (
	"fmt"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/robfig/cron/v3"
)

// cronParser accepts exactly the standard five fields
// (minute hour day-of-month month day-of-week). No seconds field, no
// L/W/# extensions — robfig/cron already implements POSIX OR-semantics
// between day-of-month and day-of-week when both are restricted.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// InvalidScheduleError wraps a schedule-specific parse/validation failure.
// HTTP handlers map it to 4xx; the materializer logs it once and skips the
// chore rather than raising.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string { return "invalid schedule: " + e.Reason }

func (e *InvalidScheduleError) Unwrap() error { return domain.ErrInvalidSchedule }

func invalidCronField(token string) error {
	return &InvalidScheduleError{Reason: fmt.Sprintf("invalid cron expression %q", token)}
}

func invalidInterval(reason string) error {
	return &InvalidScheduleError{Reason: reason}
}

// ValidateSchedule checks a schedule for structural validity without
// computing a due instant. Used by the HTTP create/update path.
func ValidateSchedule(s domain.Schedule) error {
	switch s.Kind {
	case domain.ScheduleCron:
		if _, err := cronParser.Parse(s.CronExpr); err != nil {
			return invalidCronField(s.CronExpr)
		}
	case domain.ScheduleInterval:
		if s.IntervalDays < 1 || s.IntervalDays > 365 {
			return invalidInterval("days must be in [1, 365]")
		}
		if s.IntervalHour != nil && (*s.IntervalHour < 0 || *s.IntervalHour > 23) {
			return invalidInterval("hour must be in [0, 23]")
		}
		if s.IntervalMinute != nil && (*s.IntervalMinute < 0 || *s.IntervalMinute > 59) {
			return invalidInterval("minute must be in [0, 59]")
		}
	case domain.ScheduleOnceInAWhile:
		// no fields to validate
	default:
		return invalidInterval("unknown schedule kind")
	}
	return nil
}

// NextDue computes the due instant for the given schedule, anchored on the
// chore's history rather than on now — so it may land before or after now.
// A result before now means the chore is currently overdue; IsOverdue/
// IsDueToday classify it relative to now.
//
//   - Cron schedules reset from lastCompletedAt (or createdAt when no
//     completion exists yet), same as interval — the due instant is the
//     first cron occurrence after that anchor. A chore left uncompleted
//     across one or more occurrences stays due at the earliest missed one
//     until it is completed.
//   - Interval schedules reset from lastCompletedAt (or createdAt when no
//     completion exists yet) — completing the chore resets its timer.
//   - OnceInAWhile never has a due instant.
func NextDue(s domain.Schedule, now time.Time, lastCompletedAt *time.Time, createdAt time.Time) (*time.Time, error) {
	switch s.Kind {
	case domain.ScheduleCron:
		sched, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return nil, invalidCronField(s.CronExpr)
		}
		anchor := createdAt
		if lastCompletedAt != nil {
			anchor = *lastCompletedAt
		}
		next := sched.Next(anchor)
		return &next, nil

	case domain.ScheduleInterval:
		if err := ValidateSchedule(s); err != nil {
			return nil, err
		}
		base := createdAt
		if lastCompletedAt != nil {
			base = *lastCompletedAt
		}
		candidate := base.AddDate(0, 0, s.IntervalDays)

		if s.IntervalHour != nil {
			minute := 0
			if s.IntervalMinute != nil {
				minute = *s.IntervalMinute
			}
			snapped := time.Date(
				candidate.Year(), candidate.Month(), candidate.Day(),
				*s.IntervalHour, minute, 0, 0, candidate.Location(),
			)
			if snapped.Before(base) {
				snapped = snapped.AddDate(0, 0, 1)
			}
			candidate = snapped
		}
		return &candidate, nil

	case domain.ScheduleOnceInAWhile:
		return nil, nil

	default:
		return nil, invalidInterval("unknown schedule kind")
	}
}

// IsOverdue reports whether dueAt (if any) is strictly before now.
func IsOverdue(dueAt *time.Time, now time.Time) bool {
	return dueAt != nil && dueAt.Before(now)
}

// IsDueToday reports whether dueAt falls within [start, end] of now's
// calendar day in loc. loc defaults to UTC when nil.
func IsDueToday(dueAt *time.Time, now time.Time, loc *time.Location) bool {
	if dueAt == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
	due := dueAt.In(loc)
	return !due.Before(startOfDay) && !due.After(endOfDay)
}
