package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.NotificationEvent, error) {
	query := `SELECT id, chore_id, event_type, due_at, title, body, created_at FROM notification_events WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanEvent(row)
}

func scanEvent(row rowScanner) (*domain.NotificationEvent, error) {
	var e domain.NotificationEvent
	err := row.Scan(&e.ID, &e.ChoreID, &e.EventType, &e.DueAt, &e.Title, &e.Body, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("scan notification event: %w", err)
	}
	return &e, nil
}

// MaterializeDue inserts the event and one pending delivery per channel
// inside a single transaction, so the materializer's insert is all-or-
// nothing even across a crash between the two writes.
func (r *EventRepository) MaterializeDue(ctx context.Context, e *domain.NotificationEvent, channels []string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO notification_events (chore_id, event_type, due_at, title, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chore_id, event_type, due_at) DO NOTHING
		RETURNING id`,
		e.ChoreID, e.EventType, e.DueAt, e.Title, e.Body,
	)
	var eventID string
	if err := row.Scan(&eventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, tx.Commit(ctx)
		}
		return false, fmt.Errorf("insert event: %w", err)
	}

	for _, channel := range channels {
		if _, err := tx.Exec(ctx, `
			INSERT INTO notification_deliveries (event_id, channel, status, attempt_count)
			VALUES ($1, $2, 'pending', 0)
			ON CONFLICT (event_id, channel) DO NOTHING`,
			eventID, channel,
		); err != nil {
			return false, fmt.Errorf("insert delivery for channel %s: %w", channel, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit materialize tx: %w", err)
	}
	return true, nil
}

// Backoff defaults per the dispatcher's retry formula: attempt k is
// eligible once now >= last_attempted_at + min(backoffCap, backoffBase*2^(k-1)).
const (
	backoffBase = 30 * time.Second
	backoffCap  = 30 * time.Minute
)

type DeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// ClaimEligible selects deliveries whose backoff window has elapsed. The
// query runs on the pool outside an explicit transaction, so its FOR
// UPDATE SKIP LOCKED row locks are released when it returns: rows another
// transaction holds locked at that moment are skipped, but a second
// dispatcher instance can still claim the same rows before MarkAttempting
// runs.
func (r *DeliveryRepository) ClaimEligible(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.NotificationDelivery, error) {
	query := `
		SELECT id, event_id, channel, status, attempt_count, last_error, last_attempted_at, delivered_at, created_at, updated_at
		FROM notification_deliveries
		WHERE status IN ('pending', 'failed')
		  AND attempt_count < $1
		  AND (
		        last_attempted_at IS NULL
		        OR $2 >= last_attempted_at + LEAST(
		               $3 * INTERVAL '1 second',
		               ($4 * INTERVAL '1 second') * POWER(2, attempt_count - 1)
		           )
		      )
		ORDER BY last_attempted_at ASC NULLS FIRST, created_at ASC
		LIMIT $5
		FOR UPDATE SKIP LOCKED`

	rows, err := r.pool.Query(ctx, query,
		maxAttempts, now, backoffCap.Seconds(), backoffBase.Seconds(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim eligible deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.NotificationDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (r *DeliveryRepository) MarkAttempting(ctx context.Context, id string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'pending', attempt_count = attempt_count + 1, last_attempted_at = $2, updated_at = $2
		WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("mark attempting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

func (r *DeliveryRepository) MarkDelivered(ctx context.Context, id string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'delivered', delivered_at = $2, updated_at = $2
		WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

func (r *DeliveryRepository) MarkFailed(ctx context.Context, id string, lastError string, park bool, maxAttempts int) error {
	query := `
		UPDATE notification_deliveries
		SET status = 'failed',
		    last_error = $2,
		    attempt_count = CASE WHEN $3 THEN $4 ELSE attempt_count END,
		    updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, lastError, park, maxAttempts)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

func scanDelivery(row rowScanner) (*domain.NotificationDelivery, error) {
	var d domain.NotificationDelivery
	err := row.Scan(
		&d.ID, &d.EventID, &d.Channel, &d.Status, &d.AttemptCount,
		&d.LastError, &d.LastAttemptedAt, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("scan notification delivery: %w", err)
	}
	return &d, nil
}
