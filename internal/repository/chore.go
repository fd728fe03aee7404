package repository

import (
	"context"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
)

type ListChoresInput struct {
	TagName    string
	CursorTime *time.Time // cursor on (created_at DESC, id DESC)
	CursorID   string
	Limit      int
}

// ChoreRepository persists chores and their tag associations.
type ChoreRepository interface {
	Create(ctx context.Context, c *domain.Chore) (*domain.Chore, error)
	GetByID(ctx context.Context, id string) (*domain.Chore, error)
	Update(ctx context.Context, c *domain.Chore) (*domain.Chore, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, input ListChoresInput) ([]*domain.Chore, error)
	// ListAllScheduled streams every chore whose schedule is not
	// OnceInAWhile — the materializer's (C4) input set.
	ListAllScheduled(ctx context.Context) ([]*domain.Chore, error)

	SetTags(ctx context.Context, choreID string, tagIDs []string) error
	TagsForChore(ctx context.Context, choreID string) ([]*domain.Tag, error)
}
