// Package dueview computes the projected chore list the UI reads: for
// each chore, its next due instant, overdue/due-today flags, last
// completion, and tags. It is pure orchestration over the repository
// interfaces and the schedule evaluator — no new dependency, no state of
// its own.
package dueview

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/FlyinPancake/nag/internal/schedule"
)

// Entry is one row of the due view.
type Entry struct {
	Chore           *domain.Chore
	NextDue         *time.Time
	IsOverdue       bool
	IsDueToday      bool
	LastCompletedAt *time.Time
	Tags            []*domain.Tag
}

type Input struct {
	TagName         string
	IncludeUpcoming bool
	Zone            *time.Location
}

type View struct {
	chores      repository.ChoreRepository
	completions repository.CompletionRepository
	logger      *slog.Logger
}

func New(chores repository.ChoreRepository, completions repository.CompletionRepository, logger *slog.Logger) *View {
	return &View{chores: chores, completions: completions, logger: logger.With("component", "dueview")}
}

// Compute streams chores (optionally filtered by tag), fetches the most
// recent completion per chore in one batched query, evaluates each
// schedule, and returns them ordered by next_due ascending with
// never-due (OnceInAWhile) chores last — ties broken by name then id.
func (v *View) Compute(ctx context.Context, now time.Time, in Input) ([]Entry, error) {
	chores, err := v.chores.List(ctx, repository.ListChoresInput{
		TagName: in.TagName,
		Limit:   10000,
	})
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}

	ids := make([]string, len(chores))
	for i, c := range chores {
		ids[i] = c.ID
	}
	lastCompletions, err := v.completions.LastForChores(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("batch last completions: %w", err)
	}

	entries := make([]Entry, 0, len(chores))
	for _, c := range chores {
		var lastCompletedAt *time.Time
		if comp, ok := lastCompletions[c.ID]; ok {
			lastCompletedAt = &comp.CompletedAt
		}

		nextDue, err := schedule.NextDue(c.Schedule, now, lastCompletedAt, c.CreatedAt)
		if err != nil {
			v.logger.WarnContext(ctx, "skipping chore with invalid schedule in due view",
				"chore_id", c.ID, "error", err)
			continue
		}

		if !in.IncludeUpcoming && nextDue != nil && nextDue.After(now) {
			continue
		}

		tags, err := v.chores.TagsForChore(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("tags for chore %s: %w", c.ID, err)
		}

		entries = append(entries, Entry{
			Chore:           c,
			NextDue:         nextDue,
			IsOverdue:       schedule.IsOverdue(nextDue, now),
			IsDueToday:      schedule.IsDueToday(nextDue, now, in.Zone),
			LastCompletedAt: lastCompletedAt,
			Tags:            tags,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.NextDue == nil) != (b.NextDue == nil) {
			return a.NextDue != nil
		}
		if a.NextDue != nil && b.NextDue != nil && !a.NextDue.Equal(*b.NextDue) {
			return a.NextDue.Before(*b.NextDue)
		}
		if a.Chore.Name != b.Chore.Name {
			return a.Chore.Name < b.Chore.Name
		}
		return a.Chore.ID < b.Chore.ID
	})

	return entries, nil
}
