package repository

import (
	"context"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
)

// EventRepository persists NotificationEvents. Dedup on insert happens
// through MaterializeRepository; this interface is read access plus the
// lookup the dispatcher (C5) and callback ingestor (C6) need by id.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*domain.NotificationEvent, error)
}

// DeliveryRepository persists per-channel NotificationDeliveries and the
// dispatcher's (C5) claim/attempt state transitions. Delivery rows are
// created through MaterializeRepository, not through this interface.
type DeliveryRepository interface {
	// ClaimEligible selects deliveries ready for an attempt — status in
	// {pending, failed}, attempt_count < maxAttempts, and the backoff
	// window for their current attempt_count has elapsed as of now —
	// ordered by (last_attempted_at NULLS FIRST, created_at), capped at
	// limit rows.
	ClaimEligible(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.NotificationDelivery, error)

	// MarkAttempting increments attempt_count and stamps last_attempted_at
	// before the channel send is invoked.
	MarkAttempting(ctx context.Context, id string, now time.Time) error

	MarkDelivered(ctx context.Context, id string, now time.Time) error

	// MarkFailed records a failed attempt. When park is true attempt_count
	// is forced to maxAttempts so the delivery is never reclaimed.
	MarkFailed(ctx context.Context, id string, lastError string, park bool, maxAttempts int) error
}

// MaterializeRepository inserts an event and its per-channel deliveries in
// a single transaction, so a crash mid-write never leaves an event with a
// partial set of deliveries. Reports whether the event was newly inserted;
// false means an earlier tick already materialized this due instant and
// the whole call was a no-op.
type MaterializeRepository interface {
	MaterializeDue(ctx context.Context, e *domain.NotificationEvent, channels []string) (inserted bool, err error)
}
