package schedule_test

import (
	"testing"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/schedule"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func TestNextDue_IntervalFreshChore(t *testing.T) {
	created := mustParse(t, "2025-01-01T09:00:00Z")
	hour, minute := 9, 0
	sched := domain.Schedule{Kind: domain.ScheduleInterval, IntervalDays: 7, IntervalHour: &hour, IntervalMinute: &minute}

	now := mustParse(t, "2025-01-08T09:00:01Z")
	next, err := schedule.NextDue(sched, now, nil, created)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if next == nil || !next.Equal(mustParse(t, "2025-01-08T09:00:00Z")) {
		t.Fatalf("next = %v, want 2025-01-08T09:00:00Z", next)
	}
	if !schedule.IsOverdue(next, now) {
		t.Errorf("expected overdue")
	}
}

func TestNextDue_IntervalResetsOnCompletion(t *testing.T) {
	created := mustParse(t, "2025-01-01T09:00:00Z")
	hour, minute := 9, 0
	sched := domain.Schedule{Kind: domain.ScheduleInterval, IntervalDays: 7, IntervalHour: &hour, IntervalMinute: &minute}

	completed := mustParse(t, "2025-01-08T10:00:00Z")
	now := mustParse(t, "2025-01-10T00:00:00Z")

	next, err := schedule.NextDue(sched, now, &completed, created)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	want := mustParse(t, "2025-01-15T09:00:00Z")
	if next == nil || !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
	if schedule.IsOverdue(next, now) {
		t.Errorf("expected not overdue")
	}
}

func TestNextDue_CronWeekly(t *testing.T) {
	sched := domain.Schedule{Kind: domain.ScheduleCron, CronExpr: "0 9 * * 1"}
	now := mustParse(t, "2025-01-01T00:00:00Z") // Wednesday

	next, err := schedule.NextDue(sched, now, nil, now)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	want := mustParse(t, "2025-01-06T09:00:00Z")
	if next == nil || !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextDue_CronAnchorsOnLastCompletion(t *testing.T) {
	sched := domain.Schedule{Kind: domain.ScheduleCron, CronExpr: "0 9 * * 1"}
	created := mustParse(t, "2024-01-01T00:00:00Z")
	now := mustParse(t, "2025-01-10T00:00:00Z")
	completed := mustParse(t, "2025-01-06T09:00:00Z") // the Monday occurrence, completed on time

	next, err := schedule.NextDue(sched, now, &completed, created)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	want := mustParse(t, "2025-01-13T09:00:00Z") // the following Monday
	if next == nil || !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
	if schedule.IsOverdue(next, now) {
		t.Errorf("expected not overdue, next occurrence is still ahead")
	}
}

func TestNextDue_CronOverdueWhenUncompletedPastOccurrence(t *testing.T) {
	sched := domain.Schedule{Kind: domain.ScheduleCron, CronExpr: "0 9 * * 1"}
	created := mustParse(t, "2025-01-01T00:00:00Z") // Wednesday
	now := mustParse(t, "2025-01-10T00:00:00Z")      // two Mondays have passed, never completed

	next, err := schedule.NextDue(sched, now, nil, created)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	want := mustParse(t, "2025-01-06T09:00:00Z") // the first missed Monday, not the second
	if next == nil || !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
	if !schedule.IsOverdue(next, now) {
		t.Errorf("expected overdue")
	}
}

func TestNextDue_OnceInAWhileHasNoDueInstant(t *testing.T) {
	sched := domain.Schedule{Kind: domain.ScheduleOnceInAWhile}
	next, err := schedule.NextDue(sched, time.Now(), nil, time.Now())
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if next != nil {
		t.Errorf("expected nil due instant, got %v", next)
	}
}

func TestNextDue_InvalidCronExpression(t *testing.T) {
	sched := domain.Schedule{Kind: domain.ScheduleCron, CronExpr: "not a cron expr"}
	_, err := schedule.NextDue(sched, time.Now(), nil, time.Now())
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestNextDue_InvalidIntervalDays(t *testing.T) {
	sched := domain.Schedule{Kind: domain.ScheduleInterval, IntervalDays: 0}
	_, err := schedule.NextDue(sched, time.Now(), nil, time.Now())
	if err == nil {
		t.Fatal("expected error for out-of-range interval days")
	}
}

func TestIsDueToday(t *testing.T) {
	now := mustParse(t, "2025-06-15T12:00:00Z")
	due := mustParse(t, "2025-06-15T23:59:00Z")
	if !schedule.IsDueToday(&due, now, nil) {
		t.Errorf("expected due today")
	}

	dueTomorrow := mustParse(t, "2025-06-16T00:00:01Z")
	if schedule.IsDueToday(&dueTomorrow, now, nil) {
		t.Errorf("expected not due today")
	}
}
