package repository

import (
	"context"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
)

type ListCompletionsInput struct {
	ChoreID    string
	CursorTime *time.Time
	CursorID   string
	Limit      int
}

type CompletionRepository interface {
	Create(ctx context.Context, c *domain.Completion) (*domain.Completion, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, input ListCompletionsInput) ([]*domain.Completion, error)
	// LastForChore returns the most recent completion for a chore, or nil
	// if the chore has never been completed.
	LastForChore(ctx context.Context, choreID string) (*domain.Completion, error)
	// LastForChores batches LastForChore across many chores (C3's due view
	// needs one lookup per chore; this avoids N+1 queries).
	LastForChores(ctx context.Context, choreIDs []string) (map[string]*domain.Completion, error)
}
