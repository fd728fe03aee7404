// Package dispatcher runs the periodic claim/attempt cycle that delivers
// materialized notification events through channel adapters, with
// bounded retry and backoff.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FlyinPancake/nag/internal/channel"
	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/metrics"
	"github.com/FlyinPancake/nag/internal/repository"
)

const lastErrorMaxLen = 1024

type Dispatcher struct {
	events      repository.EventRepository
	chores      repository.ChoreRepository
	deliveries  repository.DeliveryRepository
	channels    map[string]channel.Channel
	interval    time.Duration
	batchSize   int
	maxAttempts int
	logger      *slog.Logger
}

func New(
	events repository.EventRepository,
	chores repository.ChoreRepository,
	deliveries repository.DeliveryRepository,
	channels map[string]channel.Channel,
	interval time.Duration,
	batchSize, maxAttempts int,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		events:      events,
		chores:      chores,
		deliveries:  deliveries,
		channels:    channels,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", "interval", d.interval, "batch_size", d.batchSize)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.DispatcherTickDuration.Observe(time.Since(start).Seconds()) }()

	now := start.UTC()

	claimed, err := d.deliveries.ClaimEligible(ctx, now, d.maxAttempts, d.batchSize)
	if err != nil {
		d.logger.ErrorContext(ctx, "dispatcher claim eligible deliveries", "error", err)
		return
	}
	if len(claimed) == 0 {
		return
	}

	d.logger.Info("dispatcher claimed deliveries", "count", len(claimed))
	metrics.DeliveriesInFlight.Add(float64(len(claimed)))
	defer metrics.DeliveriesInFlight.Sub(float64(len(claimed)))

	for _, delivery := range claimed {
		d.attempt(ctx, delivery, now)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, delivery *domain.NotificationDelivery, now time.Time) {
	logger := d.logger.With("delivery_id", delivery.ID, "channel", delivery.Channel)

	event, err := d.events.GetByID(ctx, delivery.EventID)
	if err != nil {
		logger.ErrorContext(ctx, "load event for delivery", "error", err)
		return
	}
	chore, err := d.chores.GetByID(ctx, event.ChoreID)
	if err != nil {
		logger.ErrorContext(ctx, "load chore for delivery", "error", err)
		return
	}

	adapter, ok := d.channels[delivery.Channel]
	if !ok {
		logger.ErrorContext(ctx, "no adapter configured for channel, parking delivery")
		_ = d.deliveries.MarkFailed(ctx, delivery.ID, "no adapter configured for channel", true, d.maxAttempts)
		metrics.DeliveryParkedTotal.WithLabelValues(delivery.Channel).Inc()
		return
	}

	if err := d.deliveries.MarkAttempting(ctx, delivery.ID, now); err != nil {
		logger.ErrorContext(ctx, "mark delivery attempting", "error", err)
		return
	}

	sendErr := adapter.Send(ctx, "", event.Title, event.Body, channel.ActionHint{
		EventID: event.ID,
		ChoreID: chore.ID,
	})

	if sendErr == nil {
		metrics.DeliveryAttemptsTotal.WithLabelValues(delivery.Channel, "success").Inc()
		if err := d.deliveries.MarkDelivered(ctx, delivery.ID, time.Now().UTC()); err != nil {
			logger.ErrorContext(ctx, "mark delivery delivered", "error", err)
		}
		return
	}

	var permanent *channel.PermanentError
	park := errors.As(sendErr, &permanent)
	if err := d.deliveries.MarkFailed(ctx, delivery.ID, truncate(sendErr.Error(), lastErrorMaxLen), park, d.maxAttempts); err != nil {
		logger.ErrorContext(ctx, "mark delivery failed", "error", err)
	}

	if park {
		metrics.DeliveryAttemptsTotal.WithLabelValues(delivery.Channel, "permanent_failure").Inc()
		metrics.DeliveryParkedTotal.WithLabelValues(delivery.Channel).Inc()
		logger.WarnContext(ctx, "delivery permanently failed, parked", "error", sendErr)
	} else {
		metrics.DeliveryAttemptsTotal.WithLabelValues(delivery.Channel, "transient_failure").Inc()
		if delivery.AttemptCount+1 >= d.maxAttempts {
			metrics.DeliveryParkedTotal.WithLabelValues(delivery.Channel).Inc()
			logger.WarnContext(ctx, "delivery attempts exhausted, parked", "attempt", delivery.AttemptCount+1, "error", sendErr)
		} else {
			logger.WarnContext(ctx, "delivery attempt failed, will retry", "attempt", delivery.AttemptCount+1, "error", sendErr)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
