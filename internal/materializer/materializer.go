// Package materializer runs the periodic tick that turns due chores into
// persisted notification events and per-channel deliveries, exactly once
// per due instant.
package materializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/metrics"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/FlyinPancake/nag/internal/schedule"
)

type Materializer struct {
	chores       repository.ChoreRepository
	completions  repository.CompletionRepository
	materializer repository.MaterializeRepository
	channels     []string
	interval     time.Duration
	logger       *slog.Logger

	warnedInvalid map[string]bool
}

func New(
	chores repository.ChoreRepository,
	completions repository.CompletionRepository,
	materializer repository.MaterializeRepository,
	channels []string,
	interval time.Duration,
	logger *slog.Logger,
) *Materializer {
	return &Materializer{
		chores:        chores,
		completions:   completions,
		materializer:  materializer,
		channels:      channels,
		interval:      interval,
		logger:        logger.With("component", "materializer"),
		warnedInvalid: make(map[string]bool),
	}
}

func (m *Materializer) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("materializer started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("materializer shut down")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Materializer) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.MaterializerTickDuration.Observe(time.Since(start).Seconds()) }()

	now := start.UTC()

	chores, err := m.chores.ListAllScheduled(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "materializer list scheduled chores", "error", err)
		return
	}
	if len(chores) == 0 {
		return
	}

	ids := make([]string, len(chores))
	for i, c := range chores {
		ids[i] = c.ID
	}
	lastCompletions, err := m.completions.LastForChores(ctx, ids)
	if err != nil {
		m.logger.ErrorContext(ctx, "materializer batch last completions", "error", err)
		return
	}

	materialized := 0
	for _, chore := range chores {
		var lastCompletedAt *time.Time
		if comp, ok := lastCompletions[chore.ID]; ok {
			lastCompletedAt = &comp.CompletedAt
		}

		nextDue, err := schedule.NextDue(chore.Schedule, now, lastCompletedAt, chore.CreatedAt)
		if err != nil {
			if !m.warnedInvalid[chore.ID] {
				m.logger.WarnContext(ctx, "skipping chore with unparseable schedule",
					"chore_id", chore.ID, "error", err)
				m.warnedInvalid[chore.ID] = true
				metrics.ChoresSkippedInvalidScheduleTotal.Inc()
			}
			continue
		}
		delete(m.warnedInvalid, chore.ID)

		if nextDue == nil || nextDue.After(now) {
			continue
		}

		inserted, err := m.materializeOne(ctx, chore, *nextDue)
		if err != nil {
			m.logger.ErrorContext(ctx, "materialize chore", "chore_id", chore.ID, "error", err)
			continue
		}
		if inserted {
			materialized++
			metrics.EventsMaterializedTotal.Inc()
		}
	}

	if materialized > 0 {
		m.logger.Info("materializer tick complete", "materialized", materialized)
	}
}

// materializeOne inserts the event and one pending delivery per
// configured channel in a single transaction. The event's uniqueness key
// (chore_id, event_type, due_at) absorbs duplicate ticks; a collision
// commits as a no-op.
func (m *Materializer) materializeOne(ctx context.Context, chore *domain.Chore, dueAt time.Time) (bool, error) {
	inserted, err := m.materializer.MaterializeDue(ctx, &domain.NotificationEvent{
		ChoreID:   chore.ID,
		EventType: domain.EventTypeDue,
		DueAt:     dueAt,
		Title:     chore.Name,
		Body:      formatBody(chore, dueAt),
	}, m.channels)
	if err != nil {
		return false, fmt.Errorf("materialize due event: %w", err)
	}
	return inserted, nil
}

func formatBody(chore *domain.Chore, dueAt time.Time) string {
	if chore.Description != "" {
		return fmt.Sprintf("%s - due %s", chore.Description, dueAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("due %s", dueAt.Format(time.RFC3339))
}
