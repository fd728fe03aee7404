package domain

import (
	"errors"
	"time"
)

var ErrCompletionNotFound = errors.New("completion not found")

// Completion is an append-only record that a chore was done at a given
// instant. Backdating is allowed; no monotonic ordering is enforced.
type Completion struct {
	ID          string
	ChoreID     string
	CompletedAt time.Time
	Notes       *string
	CreatedAt   time.Time
}
