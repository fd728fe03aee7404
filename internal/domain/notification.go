package domain

import (
	"errors"
	"time"
)

var (
	ErrEventNotFound    = errors.New("notification event not found")
	ErrDeliveryNotFound = errors.New("notification delivery not found")
)

type EventType string

const EventTypeDue EventType = "due"

// NotificationEvent is a materialized notification occurrence for a
// specific chore and due instant. (ChoreID, EventType, DueAt) is unique —
// the deduplication key that makes materialization idempotent.
type NotificationEvent struct {
	ID        string
	ChoreID   string
	EventType EventType
	DueAt     time.Time
	Title     string
	Body      string
	CreatedAt time.Time
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// NotificationDelivery is a per-channel attempt to send an event's
// notification. (EventID, Channel) is unique.
type NotificationDelivery struct {
	ID              string
	EventID         string
	Channel         string
	Status          DeliveryStatus
	AttemptCount    int
	LastError       *string
	LastAttemptedAt *time.Time
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
